package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isStaff() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	OfflineLogin(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Update(ctx context.Context) error
	Sync(ctx context.Context) error
	List(ctx context.Context) error
	DupCheck(ctx context.Context) error
	Users(ctx context.Context) error
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	Logout(ctx context.Context) error
	Wipe(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// Unknown commands are reported back to the user. The loop exits on EOF or
// when the user types "exit" or "quit".
//
// Commands
//
//	Always:
//	  - help             show available commands
//	  - register         register a new resident (online only)
//	  - login            log in against the barangay office
//	  - offline          log in with credentials cached on this device
//	  - list             list accounts cached on this device
//	  - dupcheck         check a contact or name against this device
//	  - sync             push unsynced records now
//	  - wipe             delete every account cached on this device
//	  - exit | quit      leave the program
//
//	Logged in:
//	  - whoami           show the current identity
//	  - update           edit the current profile
//	  - logout           log out
//
//	Staff:
//	  - users            list remote registrations
//	  - approve <id>     approve a resident
//	  - reject <id>      reject a resident
//	  - delete <id>      delete a registration
//
// Handlers print their own errors, so errors returned here are ignored.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("bc %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText(a))

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "offline":
			_ = a.OfflineLogin(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "dupcheck":
			_ = a.DupCheck(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "wipe":
			_ = a.Wipe(ctx)

		case "whoami", "update", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please log in first.")
				continue
			}
			switch cmd {
			case "whoami":
				_ = a.WhoAmI(ctx)
			case "update":
				_ = a.Update(ctx)
			case "logout":
				_ = a.Logout(ctx)
			}

		case "users":
			_ = a.Users(ctx)

		case "approve", "reject", "delete":
			if len(args) == 0 {
				printlnFn(fmt.Sprintf("Usage: %s <user id>", cmd))
				continue
			}
			switch cmd {
			case "approve":
				_ = a.Approve(ctx, args[0])
			case "reject":
				_ = a.Reject(ctx, args[0])
			case "delete":
				_ = a.Remove(ctx, args[0])
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func helpText(a execIface) string {
	cmds := []string{"register", "login", "offline", "(l)ist", "dupcheck", "sync", "wipe"}
	if a.isLoggedIn() {
		cmds = append(cmds, "whoami", "update", "logout")
	}
	if a.isStaff() {
		cmds = append(cmds, "users", "approve <id>", "reject <id>", "delete <id>")
	}
	cmds = append(cmds, "exit")
	return "Available commands: " + strings.Join(cmds, ", ")
}
