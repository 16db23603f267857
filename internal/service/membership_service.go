package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"term-chat/internal/domain"
	"term-chat/internal/repository"
)

// AdminVerifier valida la contraseña de administrador.
type AdminVerifier interface {
	VerifyAdminPassword(ctx context.Context, password string) error
}

// MembershipService maneja amistades y grupos.
type MembershipService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	friends repository.FriendRepository
	groups  repository.GroupRepository
	admin   AdminVerifier
}

var (
	ErrMembershipServiceNotConfigured = errors.New("membership service not configured")
	ErrSelfFriend                     = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends                 = errors.New("already friends")
	ErrInvalidGroupName               = errors.New("invalid group name")
	ErrGroupExists                    = errors.New("group already exists")
	ErrGroupNotFound                  = errors.New("group not found")
	ErrAlreadyMember                  = errors.New("already a group member")
	ErrNotMember                      = errors.New("not a group member")
	ErrRemoveForbidden                = errors.New("only the group creator or an admin can remove members")
)

const maxGroupNameLength = 64

func NewMembershipService(
	logger *zap.Logger,
	users repository.UserRepository,
	friends repository.FriendRepository,
	groups repository.GroupRepository,
	admin AdminVerifier,
) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{
		logger:  logger,
		users:   users,
		friends: friends,
		groups:  groups,
		admin:   admin,
	}
}

func (s *MembershipService) friendsReady() bool {
	return s != nil && s.users != nil && s.friends != nil
}

func (s *MembershipService) groupsReady() bool {
	return s != nil && s.groups != nil
}

// AddFriend crea la amistad en ambas direcciones.
func (s *MembershipService) AddFriend(ctx context.Context, user, friend string) error {
	if !s.friendsReady() {
		return ErrMembershipServiceNotConfigured
	}
	user = strings.TrimSpace(user)
	friend = strings.TrimSpace(friend)
	if friend == "" {
		return ErrUserNotFound
	}
	if user == friend {
		return ErrSelfFriend
	}

	exists, err := s.users.Exists(ctx, friend)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	err = s.friends.Add(ctx, user, friend)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return ErrAlreadyFriends
	}
	if err != nil {
		return err
	}
	s.logger.Info("friend added", zap.String("user", user), zap.String("friend", friend))
	return nil
}

func (s *MembershipService) FriendsOf(ctx context.Context, user string) ([]string, error) {
	if !s.friendsReady() {
		return nil, ErrMembershipServiceNotConfigured
	}
	return s.friends.List(ctx, strings.TrimSpace(user))
}

func (s *MembershipService) IsFriend(ctx context.Context, user, other string) (bool, error) {
	if !s.friendsReady() {
		return false, ErrMembershipServiceNotConfigured
	}
	return s.friends.Are(ctx, strings.TrimSpace(user), strings.TrimSpace(other))
}

// CreateGroup crea el grupo; el creador queda como miembro.
func (s *MembershipService) CreateGroup(ctx context.Context, name, creator string) (domain.Group, error) {
	if !s.groupsReady() {
		return domain.Group{}, ErrMembershipServiceNotConfigured
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxGroupNameLength {
		return domain.Group{}, ErrInvalidGroupName
	}

	g, err := s.groups.Create(ctx, name, strings.TrimSpace(creator))
	if errors.Is(err, repository.ErrAlreadyExists) {
		return domain.Group{}, ErrGroupExists
	}
	if err != nil {
		return domain.Group{}, err
	}
	s.logger.Info("group created", zap.String("group", name), zap.String("creator", g.Creator))
	return g, nil
}

func (s *MembershipService) JoinGroup(ctx context.Context, user, name string) error {
	if !s.groupsReady() {
		return ErrMembershipServiceNotConfigured
	}
	name = strings.TrimSpace(name)
	if _, err := s.group(ctx, name); err != nil {
		return err
	}

	err := s.groups.AddMember(ctx, name, strings.TrimSpace(user))
	if errors.Is(err, repository.ErrAlreadyExists) {
		return ErrAlreadyMember
	}
	return err
}

// RemoveFromGroup quita a target del grupo. Lo puede hacer el creador del
// grupo o quien conozca la contraseña de administrador.
func (s *MembershipService) RemoveFromGroup(ctx context.Context, actor, target, name, adminPassword string) error {
	if !s.groupsReady() {
		return ErrMembershipServiceNotConfigured
	}
	name = strings.TrimSpace(name)
	target = strings.TrimSpace(target)

	g, err := s.group(ctx, name)
	if err != nil {
		return err
	}
	if g.Creator != strings.TrimSpace(actor) {
		if s.admin == nil {
			return ErrRemoveForbidden
		}
		if err := s.admin.VerifyAdminPassword(ctx, adminPassword); err != nil {
			if errors.Is(err, ErrAdminPasswordInvalid) {
				return ErrRemoveForbidden
			}
			return err
		}
	}

	err = s.groups.RemoveMember(ctx, name, target)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotMember
	}
	if err != nil {
		return err
	}
	s.logger.Info("group member removed",
		zap.String("group", name),
		zap.String("member", target),
		zap.String("actor", actor),
	)
	return nil
}

// CanRemoveWithoutAdmin indica si actor es el creador del grupo.
func (s *MembershipService) CanRemoveWithoutAdmin(ctx context.Context, actor, name string) (bool, error) {
	if !s.groupsReady() {
		return false, ErrMembershipServiceNotConfigured
	}
	g, err := s.group(ctx, strings.TrimSpace(name))
	if err != nil {
		return false, err
	}
	return g.Creator == strings.TrimSpace(actor), nil
}

func (s *MembershipService) GroupsOf(ctx context.Context, user string) ([]string, error) {
	if !s.groupsReady() {
		return nil, ErrMembershipServiceNotConfigured
	}
	return s.groups.ListForUser(ctx, strings.TrimSpace(user))
}

func (s *MembershipService) IsMember(ctx context.Context, user, name string) (bool, error) {
	if !s.groupsReady() {
		return false, ErrMembershipServiceNotConfigured
	}
	return s.groups.IsMember(ctx, strings.TrimSpace(name), strings.TrimSpace(user))
}

func (s *MembershipService) GroupMembers(ctx context.Context, name string) ([]string, error) {
	if !s.groupsReady() {
		return nil, ErrMembershipServiceNotConfigured
	}
	name = strings.TrimSpace(name)
	if _, err := s.group(ctx, name); err != nil {
		return nil, err
	}
	return s.groups.Members(ctx, name)
}

func (s *MembershipService) group(ctx context.Context, name string) (domain.Group, error) {
	if name == "" {
		return domain.Group{}, ErrGroupNotFound
	}
	g, err := s.groups.Get(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Group{}, ErrGroupNotFound
	}
	return g, err
}
