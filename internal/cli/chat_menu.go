package cli

import (
	"context"
	"io"
	"strconv"

	"go.uber.org/zap"

	"term-chat/internal/livechat"
)

func (a *App) chatMenu(ctx context.Context, user string) error {
	for {
		a.println("\n========== chat ==========")
		a.println("1. recent chats")
		a.println("2. friends and groups")
		a.println("3. private chat")
		a.println("4. group chat")
		a.println("0. back")

		choice, err := a.prompt("choice: ")
		if err != nil {
			return io.EOF
		}
		switch choice {
		case "1":
			if err := a.recentChatsScreen(ctx, user); err != nil {
				return err
			}
		case "2":
			a.contactsScreen(ctx, user)
		case "3":
			a.privateChatFlow(ctx, user)
		case "4":
			a.groupChatFlow(ctx, user)
		case "0":
			return nil
		default:
			a.println("invalid choice")
		}
	}
}

// recentChatsScreen lista las conversaciones recientes y abre la elegida.
// Al volver de una conversación la lista se recalcula.
func (a *App) recentChatsScreen(ctx context.Context, user string) error {
	for {
		recent := a.svc.Recent.ListRecentConversations(ctx, user)
		a.printf("%s", clearScreen)
		RenderRecent(a.out, recent, a.opts.Now())

		choice, err := a.prompt("enter a number to open a chat, 0 to go back: ")
		if err != nil {
			return io.EOF
		}
		if choice == "0" {
			return nil
		}
		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(recent) {
			a.println("invalid choice")
			continue
		}
		selected := recent[idx-1]
		a.enterChat(ctx, user, selected.PartnerName, selected.IsGroup)
	}
}

func (a *App) contactsScreen(ctx context.Context, user string) {
	friends, err := a.svc.Members.FriendsOf(ctx, user)
	if err != nil {
		a.showError(err)
		return
	}
	groups, err := a.svc.Members.GroupsOf(ctx, user)
	if err != nil {
		a.showError(err)
		return
	}

	a.println("\n========== friends ==========")
	if len(friends) == 0 {
		a.println("no friends yet")
	}
	for _, f := range friends {
		a.printf("  %s\n", f)
	}

	a.println("\n========== groups ==========")
	if len(groups) == 0 {
		a.println("no groups yet")
	}
	for _, g := range groups {
		members, err := a.svc.Members.GroupMembers(ctx, g)
		if err != nil {
			a.printf("  %s\n", g)
			continue
		}
		a.printf("  %s (%d members)\n", g, len(members))
	}
}

func (a *App) privateChatFlow(ctx context.Context, user string) {
	friend, err := a.prompt("friend username: ")
	if err != nil {
		return
	}
	ok, err := a.svc.Members.IsFriend(ctx, user, friend)
	if err != nil {
		a.showError(err)
		return
	}
	if !ok {
		a.printf("%s is not your friend, add them first\n", friend)
		return
	}
	a.enterChat(ctx, user, friend, false)
}

func (a *App) groupChatFlow(ctx context.Context, user string) {
	name, err := a.prompt("group name: ")
	if err != nil {
		return
	}
	ok, err := a.svc.Members.IsMember(ctx, user, name)
	if err != nil {
		a.showError(err)
		return
	}
	if !ok {
		a.printf("you are not a member of %s\n", name)
		return
	}
	a.enterChat(ctx, user, name, true)
}

func (a *App) enterChat(ctx context.Context, user, target string, isGroup bool) {
	session := livechat.NewSession(a.svc.Messages, a.svc.Recent, a.in, a.out, livechat.Options{
		User:         user,
		Target:       target,
		IsGroup:      isGroup,
		PollInterval: a.opts.PollInterval,
		Now:          a.opts.Now,
		Logger:       a.logger,
	})
	if err := session.Run(ctx); err != nil {
		a.logger.Warn("live chat ended with error", zap.String("session_id", session.ID()), zap.Error(err))
		a.showError(err)
	}
}
