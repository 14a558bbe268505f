// Command client is a small terminal client for the task API. The session
// is kept in a local SQLite file so consecutive invocations stay logged in.
//
// Usage:
//
//	client [flags] register|login|login-google|me|logout|refresh|tasks|add-task [args]
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/term"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/client"
	"github.com/yesid10/taskflow-api/internal/logger"
)

type config struct {
	APIURL    string `env:"TASKFLOW_API_URL" envDefault:"http://localhost:8080"`
	SessionDB string `env:"TASKFLOW_SESSION_DB" envDefault:"session.db"`
	LogLevel  int    `env:"LOG_LEVEL" envDefault:"4"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	flag.StringVar(&cfg.APIURL, "api", cfg.APIURL, "base URL of the API")
	flag.StringVar(&cfg.SessionDB, "session", cfg.SessionDB, "path of the local session database")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, cmd string, args []string) error {
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	storage, err := client.OpenSQLStorage(ctx, cfg.SessionDB)
	if err != nil {
		return err
	}
	api := client.NewAPI(cfg.APIURL, nil)
	store := client.NewStore(api, storage, log.Logger)
	defer store.Close()
	api.OnUnauthorized = store.HandleUnauthorized

	switch cmd {
	case "register":
		in := bufio.NewReader(os.Stdin)
		name := prompt(in, "Name: ")
		email := prompt(in, "Email: ")
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		res, err := api.Register(ctx, client.RegisterRequest{
			Name: name, Email: email, Password: password, PasswordConfirmation: password,
		})
		if err != nil {
			return err
		}
		if err := store.Login(ctx, res.Token, res.User); err != nil {
			return err
		}
		fmt.Printf("registered as %s\n", res.User.Email)
		return nil

	case "login":
		email := prompt(bufio.NewReader(os.Stdin), "Email: ")
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		tok, err := api.Login(ctx, email, password)
		if err != nil {
			return err
		}
		u, err := api.Me(ctx, tok.AccessToken)
		if err != nil {
			return err
		}
		if err := store.Login(ctx, tok.AccessToken, u); err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", u.Email)
		return nil

	case "login-google":
		if len(args) != 1 {
			return errors.New("usage: login-google <id-token>")
		}
		res, err := api.LoginGoogle(ctx, args[0])
		if err != nil {
			return err
		}
		if err := store.Login(ctx, res.Token, res.User); err != nil {
			return err
		}
		fmt.Printf("logged in as %s via google\n", res.User.Email)
		return nil
	}

	// the remaining commands need a resolved session
	if err := store.Init(ctx); err != nil {
		return err
	}
	if !store.IsAuthenticated() {
		return apperr.ErrMissingToken.WithMessage("not logged in")
	}

	switch cmd {
	case "me":
		u, _ := store.CurrentUser()
		return printJSON(u)

	case "logout":
		if err := store.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "refresh":
		tok, err := api.Refresh(ctx, store.Token())
		if err != nil {
			return err
		}
		u, _ := store.CurrentUser()
		return store.Login(ctx, tok.AccessToken, u)

	case "tasks":
		tasks, err := api.ListTasks(ctx, store.Token())
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%d\t%-11s\t%s\n", t.ID, t.Status, t.Title)
		}
		return nil

	case "add-task":
		if len(args) == 0 {
			return errors.New("usage: add-task <title>")
		}
		title := strings.Join(args, " ")
		t, err := api.CreateTask(ctx, store.Token(), client.TaskInput{Title: &title})
		if err != nil {
			return err
		}
		fmt.Printf("created task %d\n", t.ID)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := in.ReadString('\n')
	return strings.TrimSpace(s)
}

func readPassword(label string) (string, error) {
	fmt.Print(label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe renders err for a terminal, including per-field messages.
func describe(err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(e.Message)
	for field, msg := range e.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", field, msg)
	}
	return b.String()
}
