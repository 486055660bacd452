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
	isLoggedIn(ctx context.Context) bool
	hasWallet(ctx context.Context) bool
	SignUp(ctx context.Context) error
	Import(ctx context.Context) error
	Login(ctx context.Context) error
	Lock(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Logout(ctx context.Context) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) error
	Accounts(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Rename(ctx context.Context, args []string) error
	Select(ctx context.Context, args []string) error
	NewAccount(ctx context.Context) error
	ImportKey(ctx context.Context) error
	Sign(ctx context.Context, args []string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
//	No wallet:  signup, import, status, exit
//	Locked:     login, passwd, status, accounts, rename, logout, reset, exit
//	Unlocked:   whoami, sign, select, new-account, import-key, lock, passwd,
//	            accounts, rename, logout, status, exit
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("wallet %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			switch {
			case a.isLoggedIn(ctx):
				printlnFn("Available commands: whoami, sign <message>, accounts, select <id>, new-account, import-key, rename <id> <name>, passwd, lock, logout, status, exit")
			case a.hasWallet(ctx):
				printlnFn("Available commands: login, passwd, accounts, rename <id> <name>, status, reset, logout, exit")
			default:
				printlnFn("Available commands: signup, import, status, exit")
			}

		case "signup":
			cmdErr = a.SignUp(ctx)
		case "import":
			cmdErr = a.Import(ctx)
		case "login", "unlock":
			cmdErr = a.Login(ctx)
		case "lock":
			cmdErr = a.Lock(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)
		case "status":
			cmdErr = a.Status(ctx)
		case "accounts", "ls":
			cmdErr = a.Accounts(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "rename":
			cmdErr = a.Rename(ctx, args)
		case "sign":
			cmdErr = a.Sign(ctx, args)
		case "select", "use":
			cmdErr = a.Select(ctx, args)
		case "new-account":
			cmdErr = a.NewAccount(ctx)
		case "import-key":
			cmdErr = a.ImportKey(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}

		if err != nil {
			return
		}
	}
}
