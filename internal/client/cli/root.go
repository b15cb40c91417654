package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName
	}
	if a.mealName != "" {
		s = s + " / " + a.mealName
	}
	if s != "" {
		s = fmt.Sprintf("(%s) ", s)
	}
	return s
}

// Root runs the interactive loop until the user exits or stdin closes.
//
// Commands before login: register, login. After login: meals, new <title>,
// open <n>. With an album open: add <file>, list, cancel <n>, key <n>,
// del <n>, order <n...>, flush, close.
func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to Mealbook CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("mb %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			a.help()

		case "register":
			a.Register(ctx)

		case "login":
			a.Login(ctx)

		case "meals":
			if !a.requireLogin() {
				continue
			}
			a.listMeals(ctx)

		case "new":
			if !a.requireLogin() {
				continue
			}
			if len(args) == 0 {
				fmt.Println("Usage: new <title>")
				continue
			}
			a.newMeal(ctx, strings.Join(args, " "))

		case "open":
			if !a.requireLogin() {
				continue
			}
			if len(args) != 1 {
				fmt.Println("Usage: open <n>")
				continue
			}
			a.openMeal(ctx, args[0])

		case "add":
			if !a.requireAlbum() {
				continue
			}
			if len(args) != 1 {
				fmt.Println("Usage: add <file>")
				continue
			}
			a.addFile(ctx, args[0])

		case "l", "list":
			if !a.requireAlbum() {
				continue
			}
			a.listAlbum()

		case "cancel":
			if !a.requireAlbum() {
				continue
			}
			if len(args) != 1 {
				fmt.Println("Usage: cancel <n>")
				continue
			}
			a.cancelUpload(ctx, args[0])

		case "key":
			if !a.requireAlbum() {
				continue
			}
			if len(args) != 1 {
				fmt.Println("Usage: key <n>")
				continue
			}
			a.setKey(args[0])

		case "del":
			if !a.requireAlbum() {
				continue
			}
			if len(args) != 1 {
				fmt.Println("Usage: del <n>")
				continue
			}
			a.toggleDelete(args[0])

		case "order":
			if !a.requireAlbum() {
				continue
			}
			a.setOrder(args)

		case "flush":
			if !a.requireAlbum() {
				continue
			}
			a.flush(ctx)

		case "close":
			if !a.requireAlbum() {
				continue
			}
			a.closeAlbum()

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}

func (a *App) help() {
	switch {
	case a.hasAlbum():
		fmt.Println("Available commands: add <file>, (l)ist, cancel <n>, key <n>, del <n>, order <n...>, flush, close, exit")
	case a.isLoggedIn():
		fmt.Println("Available commands: meals, new <title>, open <n>, exit")
	default:
		fmt.Println("Available commands: register, login, exit")
	}
}

func (a *App) requireLogin() bool {
	if !a.isLoggedIn() {
		fmt.Println("Log in first")
		return false
	}
	return true
}

func (a *App) requireAlbum() bool {
	if !a.hasAlbum() {
		fmt.Println("Open a meal first: meals, then open <n>")
		return false
	}
	return true
}
