package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if id, ok := a.authService.Current(); ok {
		s = id.Contact + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root restores the previous session, starts the connectivity watcher and
// runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to BarangayConnect CLI (type 'help' for commands)")

	a.AutoLogin(ctx)

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(wctx)

	runREPL(ctx, a, a.getStatus, a.reader)
}
