package cli

import (
	"context"
	"io"
)

func (a *App) userMenu(ctx context.Context, user string) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.printf("\n========== %s ==========\n", user)
		a.println("1. chat")
		a.println("2. add friend")
		a.println("3. create group")
		a.println("4. join group")
		a.println("5. remove group member")
		a.println("0. logout")

		choice, err := a.prompt("choice: ")
		if err != nil {
			return io.EOF
		}
		switch choice {
		case "1":
			if err := a.chatMenu(ctx, user); err != nil {
				return err
			}
		case "2":
			a.addFriendFlow(ctx, user)
		case "3":
			a.createGroupFlow(ctx, user)
		case "4":
			a.joinGroupFlow(ctx, user)
		case "5":
			a.removeMemberFlow(ctx, user)
		case "0":
			a.println("logged out")
			return nil
		default:
			a.println("invalid choice")
		}
	}
}

func (a *App) addFriendFlow(ctx context.Context, user string) {
	friend, err := a.prompt("friend username: ")
	if err != nil {
		return
	}
	if err := a.svc.Members.AddFriend(ctx, user, friend); err != nil {
		a.showError(err)
		return
	}
	a.println("friend added")
}

func (a *App) createGroupFlow(ctx context.Context, user string) {
	name, err := a.prompt("group name: ")
	if err != nil {
		return
	}
	g, err := a.svc.Members.CreateGroup(ctx, name, user)
	if err != nil {
		a.showError(err)
		return
	}
	a.printf("group %s created\n", g.Name)
}

func (a *App) joinGroupFlow(ctx context.Context, user string) {
	name, err := a.prompt("group name: ")
	if err != nil {
		return
	}
	if err := a.svc.Members.JoinGroup(ctx, user, name); err != nil {
		a.showError(err)
		return
	}
	a.printf("joined %s\n", name)
}

func (a *App) removeMemberFlow(ctx context.Context, user string) {
	name, err := a.prompt("group name: ")
	if err != nil {
		return
	}
	member, err := a.prompt("member to remove: ")
	if err != nil {
		return
	}

	creator, err := a.svc.Members.CanRemoveWithoutAdmin(ctx, user, name)
	if err != nil {
		a.showError(err)
		return
	}
	var adminPassword string
	if !creator {
		adminPassword, err = a.password("admin password: ")
		if err != nil {
			return
		}
	}

	if err := a.svc.Members.RemoveFromGroup(ctx, user, member, name, adminPassword); err != nil {
		a.showError(err)
		return
	}
	a.printf("%s removed from %s\n", member, name)
}
