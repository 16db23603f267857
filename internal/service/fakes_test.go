package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"term-chat/internal/domain"
	"term-chat/internal/repository"
)

type fakeMessageRepo struct {
	mu       sync.Mutex
	msgs     []domain.Message
	nextTS   string
	appendTo []string
	err      error
	latestN  int
}

func (f *fakeMessageRepo) add(sender, receiver, content, ts string, isGroup bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, domain.Message{
		ID:        int64(len(f.msgs) + 1),
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		Timestamp: ts,
		IsGroup:   isGroup,
	})
}

func (f *fakeMessageRepo) Append(_ context.Context, sender, receiver, content string, isGroup bool) (domain.Message, error) {
	if f.err != nil {
		return domain.Message{}, f.err
	}
	ts := f.nextTS
	if ts == "" {
		ts = "2024-01-01 00:00:00"
	}
	f.add(sender, receiver, content, ts, isGroup)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendTo = append(f.appendTo, receiver)
	return f.msgs[len(f.msgs)-1], nil
}

func (f *fakeMessageRepo) conversation(a, b string, isGroup bool) []domain.Message {
	out := make([]domain.Message, 0)
	for _, m := range f.msgs {
		if m.IsGroup != isGroup {
			continue
		}
		if isGroup && m.Receiver == b {
			out = append(out, m)
		}
		if !isGroup && ((m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a)) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[j].Newer(out[i]) })
	return out
}

func (f *fakeMessageRepo) Fetch(_ context.Context, a, b string, isGroup bool, limit int) ([]domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conv := f.conversation(a, b, isGroup)
	if len(conv) > limit {
		conv = conv[len(conv)-limit:]
	}
	return conv, nil
}

func (f *fakeMessageRepo) Latest(_ context.Context, a, b string, isGroup bool) (domain.Message, error) {
	if f.err != nil {
		return domain.Message{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestN++
	conv := f.conversation(a, b, isGroup)
	if len(conv) == 0 {
		return domain.Message{}, repository.ErrNotFound
	}
	return conv[len(conv)-1], nil
}

func (f *fakeMessageRepo) ListDirectInvolving(_ context.Context, user string) ([]domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Message, 0)
	for _, m := range f.msgs {
		if !m.IsGroup && (m.Sender == user || m.Receiver == user) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ListGroupMessages(_ context.Context, groups []string) ([]domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(groups))
	for _, g := range groups {
		want[g] = true
	}
	out := make([]domain.Message, 0)
	for _, m := range f.msgs {
		if m.IsGroup && want[m.Receiver] {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users     map[string]domain.User
	createErr error
	deleted   []string
}

func newFakeUserRepo(names ...string) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, n := range names {
		f.users[n] = domain.User{ID: int64(len(f.users) + 1), Username: n}
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, username, hash string) (domain.User, error) {
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	if _, ok := f.users[username]; ok {
		return domain.User{}, fmt.Errorf("insert user: %w", repository.ErrAlreadyExists)
	}
	u := domain.User{ID: int64(len(f.users) + 1), Username: username, PasswordHash: hash}
	f.users[username] = u
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	u, ok := f.users[username]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Exists(_ context.Context, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeUserRepo) DeleteCascade(_ context.Context, username string) error {
	if _, ok := f.users[username]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, username)
	f.deleted = append(f.deleted, username)
	return nil
}

type fakeFriendRepo struct {
	pairs map[[2]string]bool
}

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{pairs: make(map[[2]string]bool)}
}

func (f *fakeFriendRepo) Add(_ context.Context, user, friend string) error {
	if f.pairs[[2]string{user, friend}] {
		return repository.ErrAlreadyExists
	}
	f.pairs[[2]string{user, friend}] = true
	f.pairs[[2]string{friend, user}] = true
	return nil
}

func (f *fakeFriendRepo) List(_ context.Context, user string) ([]string, error) {
	out := make([]string, 0)
	for p := range f.pairs {
		if p[0] == user {
			out = append(out, p[1])
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeFriendRepo) Are(_ context.Context, user, other string) (bool, error) {
	return f.pairs[[2]string{user, other}], nil
}

type fakeGroupRepo struct {
	groups  map[string]domain.Group
	members map[string][]string
	listErr error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[string]domain.Group), members: make(map[string][]string)}
}

func (f *fakeGroupRepo) Create(_ context.Context, name, creator string) (domain.Group, error) {
	if _, ok := f.groups[name]; ok {
		return domain.Group{}, repository.ErrAlreadyExists
	}
	g := domain.Group{Name: name, Creator: creator}
	f.groups[name] = g
	f.members[name] = []string{creator}
	return g, nil
}

func (f *fakeGroupRepo) Get(_ context.Context, name string) (domain.Group, error) {
	g, ok := f.groups[name]
	if !ok {
		return domain.Group{}, repository.ErrNotFound
	}
	return g, nil
}

func (f *fakeGroupRepo) AddMember(_ context.Context, group, username string) error {
	for _, m := range f.members[group] {
		if m == username {
			return repository.ErrAlreadyExists
		}
	}
	f.members[group] = append(f.members[group], username)
	return nil
}

func (f *fakeGroupRepo) RemoveMember(_ context.Context, group, username string) error {
	members := f.members[group]
	for i, m := range members {
		if m == username {
			f.members[group] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeGroupRepo) ListForUser(_ context.Context, username string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]string, 0)
	for g, members := range f.members {
		for _, m := range members {
			if m == username {
				out = append(out, g)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeGroupRepo) Members(_ context.Context, group string) ([]string, error) {
	return append([]string(nil), f.members[group]...), nil
}

func (f *fakeGroupRepo) IsMember(_ context.Context, group, username string) (bool, error) {
	for _, m := range f.members[group] {
		if m == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeSystemRepo struct {
	values map[string]string
}

func newFakeSystemRepo() *fakeSystemRepo {
	return &fakeSystemRepo{values: make(map[string]string)}
}

func (f *fakeSystemRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeSystemRepo) SetIfAbsent(_ context.Context, key, value string) error {
	if _, ok := f.values[key]; !ok {
		f.values[key] = value
	}
	return nil
}
