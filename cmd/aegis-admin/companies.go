package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aegisrent/aegis-console/internal/gateway"
)

func newCompaniesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Aliases: []string{"company"},
		Short:   "Manage rental companies",
	}

	cmd.AddCommand(
		newCompaniesListCmd(a),
		newCompaniesGetCmd(a),
		newCompaniesCreateCmd(a),
	)

	return cmd
}

func newCompaniesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			companies, err := client.Companies(cmd.Context())
			if err != nil {
				return describe(err)
			}

			out := cmd.OutOrStdout()
			if len(companies) == 0 {
				fmt.Fprintln(out, "No companies.")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-8s  %-20s  %s\n", "ID", "ACTIVE", "SUBDOMAIN", "NAME")
			for _, c := range companies {
				fmt.Fprintf(out, "%-36s  %-8t  %-20s  %s\n", c.ID, c.IsActive, c.Subdomain, c.Name)
			}
			return nil
		},
	}
}

func newCompaniesGetCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <company-id>",
		Short: "Show one company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			company, err := client.Company(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), company)
			}
			printCompany(cmd.OutOrStdout(), company)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw record as JSON")

	return cmd
}

func newCompaniesCreateCmd(a *app) *cobra.Command {
	var in gateway.Company

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company",
		Long: `Create a company. Its about and texts documents start with one
empty section each.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			company, err := client.CreateCompany(cmd.Context(), in)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created company %s (%s)\n", company.Name, company.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "company name (required)")
	cmd.Flags().StringVar(&in.Subdomain, "subdomain", "", "public subdomain")
	cmd.Flags().StringVar(&in.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&in.Country, "country", "", "country code")
	cmd.Flags().StringVar(&in.Language, "language", "", "default language")
	cmd.Flags().StringVar(&in.Currency, "currency", "", "ISO currency code")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func printCompany(out io.Writer, c gateway.Company) {
	fmt.Fprintf(out, "ID:        %s\n", c.ID)
	fmt.Fprintf(out, "Name:      %s\n", c.Name)
	fmt.Fprintf(out, "Active:    %t\n", c.IsActive)
	for _, row := range [][2]string{
		{"Subdomain", c.Subdomain},
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"Country", c.Country},
		{"Language", c.Language},
		{"Currency", c.Currency},
		{"Stripe", c.StripeAccountID},
	} {
		if row[1] != "" {
			fmt.Fprintf(out, "%-10s %s\n", row[0]+":", row[1])
		}
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
