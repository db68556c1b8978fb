// Package cli comandos de línea para calcular el kardex sin levantar el servidor.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand arma el comando raíz con sus subcomandos.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "kardex",
		Short: "Kardex de inventario: saldo acumulado por producto",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newComputeCommand())
	root.AddCommand(newTokenCommand())
	return root
}
