package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/dinekit-go/internal/core/domain"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in session",
		Subcommands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Store an auth token and, optionally, the user and tenant",
				ArgsUsage: "TOKEN",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "remember", Usage: "keep the session for 7 days instead of 24 hours"},
					&cli.StringFlag{Name: "user-id"},
					&cli.StringFlag{Name: "user-name"},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "role"},
					&cli.StringFlag{Name: "tenant-id"},
					&cli.StringFlag{Name: "tenant-name"},
					&cli.StringFlag{Name: "tenant-slug"},
					&cli.StringFlag{Name: "currency"},
					&cli.StringFlag{Name: "timezone"},
				},
				Action: authLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session",
				Action: authStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the token, user and tenant",
				Action: authLogout,
			},
		},
	}
}

func authLogin(c *cli.Context) error {
	if c.NArg() != 1 || c.Args().First() == "" {
		return usageError(c)
	}

	var user *domain.User
	if c.IsSet("user-id") {
		user = &domain.User{
			ID:       c.String("user-id"),
			Name:     c.String("user-name"),
			Email:    c.String("email"),
			Role:     c.String("role"),
			TenantID: c.String("tenant-id"),
		}
		if err := user.Validate(); err != nil {
			return err
		}
	}
	var tenant *domain.Tenant
	if c.IsSet("tenant-id") {
		tenant = &domain.Tenant{
			ID:       c.String("tenant-id"),
			Name:     c.String("tenant-name"),
			Slug:     c.String("tenant-slug"),
			Currency: c.String("currency"),
			Timezone: c.String("timezone"),
		}
		if err := tenant.Validate(); err != nil {
			return err
		}
	}

	env := envFrom(c)
	sess, err := env.Session(c.Context)
	if err != nil {
		return err
	}
	remember := c.Bool("remember")
	sess.SetAuthToken(c.Context, c.Args().First(), remember)
	if user != nil {
		sess.SetUserData(c.Context, *user, remember)
	}
	if tenant != nil {
		sess.SetTenantInfo(c.Context, *tenant)
	}
	env.Logger.Info("session stored", "remember", remember, "user", user != nil, "tenant", tenant != nil)
	return nil
}

type sessionStatus struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	UserID        string `json:"userId,omitempty" yaml:"user_id,omitempty"`
	UserName      string `json:"userName,omitempty" yaml:"user_name,omitempty"`
	TenantID      string `json:"tenantId,omitempty" yaml:"tenant_id,omitempty"`
	TenantName    string `json:"tenantName,omitempty" yaml:"tenant_name,omitempty"`
	Device        string `json:"device" yaml:"device"`
}

func authStatus(c *cli.Context) error {
	env := envFrom(c)
	sess, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	st := sessionStatus{
		Authenticated: sess.IsAuthenticated(c.Context),
		Device:        sess.Store().Fingerprint()[:12],
	}
	if u, ok := sess.UserData(c.Context); ok {
		st.UserID, st.UserName = u.ID, u.Name
	}
	if t, ok := sess.TenantInfo(c.Context); ok {
		st.TenantID, st.TenantName = t.ID, t.Name
	}
	return env.Print(st)
}

func authLogout(c *cli.Context) error {
	sess, err := envFrom(c).Session(c.Context)
	if err != nil {
		return err
	}
	sess.ClearAuth(c.Context)
	return nil
}
