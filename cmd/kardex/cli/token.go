package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/jwt"
)

// newTokenCommand emite un token de desarrollo firmado con JWT_SECRET.
func newTokenCommand() *cobra.Command {
	var userID, companyID, role string
	var minutes int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Genera un token Bearer de desarrollo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Read()
			if companyID == "" {
				return fmt.Errorf("--company es obligatorio")
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, companyID, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "dev-user", "id de usuario")
	cmd.Flags().StringVar(&companyID, "company", "", "id de empresa")
	cmd.Flags().StringVar(&role, "role", "admin", "rol (admin | bodeguero | vendedor)")
	cmd.Flags().IntVar(&minutes, "minutes", 60, "vigencia en minutos")
	return cmd
}
