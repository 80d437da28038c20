package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/rcliao/ai-tutor/internal/api"
)

func init() {
	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Run:   runRegister,
	}
	register.Flags().StringP("username", "u", "", "Username")
	register.Flags().StringP("email", "e", "", "Email")
	register.Flags().String("password", "", "Password (prompted when omitted)")

	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session token",
		Run:   runLogin,
	}
	login.Flags().StringP("email", "e", "", "Email")
	login.Flags().String("password", "", "Password (prompted when omitted)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session token",
		Run:   runLogout,
	}

	RootCmd.AddCommand(register, login, logout)
}

func runRegister(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	a := mustApp(cmd)
	defer a.Close()

	username = promptIfEmpty("Username", username)
	email = promptIfEmpty("Email", email)
	if password == "" {
		password = promptPassword("Password")
	}

	u, err := a.client.Register(cmd.Context(), api.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		exitErr("register", err)
	}

	printOut(u, func() {
		fmt.Printf("%s Registered %s <%s>. You can now log in.\n", okLabel("✓"), u.Username, u.Email)
	})
}

func runLogin(cmd *cobra.Command, args []string) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	a := mustApp(cmd)
	defer a.Close()

	email = promptIfEmpty("Email", email)
	if password == "" {
		password = promptPassword("Password")
	}

	sess, err := a.client.Login(cmd.Context(), api.LoginRequest{Email: email, Password: password})
	if err != nil {
		exitErr("login", err)
	}
	if err := saveSession(cmd.Context(), a.store, sess); err != nil {
		exitErr("save session", err)
	}

	printOut(map[string]any{"ok": true, "user": sess.User}, func() {
		name := userLabel(sess.User)
		if name == "" {
			name = email
		}
		fmt.Printf("%s Logged in as %s\n", okLabel("✓"), name)
	})
}

func runLogout(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	defer a.Close()

	if a.session.Authorized() {
		if err := a.client.Logout(cmd.Context(), a.session); err != nil {
			// The local token is dropped either way.
			a.log.Warn("logout request failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "%s: %v\n", warnLabel("warning"), err)
		}
	}
	if err := clearSession(cmd.Context(), a.store); err != nil {
		exitErr("clear session", err)
	}
	printOK("Logged out")
}

var stdin = bufio.NewReader(os.Stdin)

func promptIfEmpty(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptIfEmpty(label, "")
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		exitErr("read password", err)
	}
	return string(b)
}
