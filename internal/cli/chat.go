package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aaronromeo/swolecoach/internal/console"
	"github.com/aaronromeo/swolecoach/internal/pipeline"
	"github.com/aaronromeo/swolecoach/internal/profile"
)

const defaultUser = "default"

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive coaching session",
	Long: `Start an interactive coaching session.

Free text is classified into a routine request, an exercise log or a
history query. Inside the session:
  login <usuario>   switch to another profile
  1rm <peso> <reps> estimate a one-rep max
  salir             end the session (also exit, quit)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if fi, err := os.Stat(cfg.UsersDir); err != nil || !fi.IsDir() {
			return fmt.Errorf("users directory %s not found", cfg.UsersDir)
		}
		a, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		s := &chatSession{
			turn:     a.Turn,
			profiles: a.Profiles,
			out:      console.New(verbose),
			user:     chatUser,
		}
		return s.run(cmd.Context(), os.Stdin)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user id (asked interactively when empty)")
	rootCmd.AddCommand(chatCmd)
}

type chatSession struct {
	turn     func(context.Context, pipeline.Request) pipeline.State
	profiles *profile.Store
	out      *console.Presenter
	user     string
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	s.out.Banner()

	if s.user == "" {
		s.out.Info("\nID de usuario (Enter para 'default'): ")
		if sc.Scan() {
			s.user = strings.TrimSpace(sc.Text())
		}
		if s.user == "" {
			s.user = defaultUser
		}
	}
	s.login(s.user)

	for {
		s.out.Prompt()
		if !sc.Scan() {
			s.out.Goodbye()
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		switch {
		case line == "":
			s.out.Warn("Por favor, escribe algo...")
		case isExit(line):
			s.out.Goodbye()
			return nil
		case strings.EqualFold(fields[0], "login"):
			s.login(strings.TrimSpace(line[len(fields[0]):]))
		case strings.EqualFold(fields[0], "1rm"):
			msg, err := oneRMMessage(fields[1:])
			if err != nil {
				s.out.Warn(oneRMUsage)
				break
			}
			s.out.Info(msg)
		default:
			if err := ctx.Err(); err != nil {
				return err
			}
			st := s.turn(ctx, pipeline.Request{
				UserID:      s.user,
				RequestType: pipeline.Classify(line),
				Message:     line,
			})
			s.out.Turn(st)
		}
	}
}

// login switches the active user; a profile that cannot be loaded is
// reported but still selected so the error surfaces on the next turn.
func (s *chatSession) login(userID string) {
	if userID == "" {
		s.out.Warn("Uso: login <usuario>")
		return
	}
	s.user = userID
	p, err := s.profiles.Load(userID)
	if err != nil {
		var inc *profile.IncompleteError
		switch {
		case errors.Is(err, profile.ErrNotFound):
			s.out.Warn(fmt.Sprintf("No existe el perfil '%s'.", userID))
		case errors.As(err, &inc):
			s.out.Warn(fmt.Sprintf("El perfil '%s' está incompleto.", userID))
		default:
			s.out.Warn(fmt.Sprintf("No se pudo cargar el perfil '%s'.", userID))
		}
		return
	}
	s.out.UserContext(p)
}

func isExit(s string) bool {
	switch strings.ToLower(s) {
	case "salir", "exit", "quit":
		return true
	}
	return false
}
