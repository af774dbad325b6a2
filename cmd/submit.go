package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"gapnode/app"
	"gapnode/attestation"
	"gapnode/indexer"
	"gapnode/messages"
	"gapnode/report"
	"gapnode/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	projectID   string
	answersFile string
	assumeYes   bool
	editUID     string
)

var SubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a grant or program application from an answers file",
	Args:  cobra.NoArgs,
	RunE:  submit,
}

func init() {
	SubmitCmd.Flags().StringVar(&projectID, "project", "", "Project the grant belongs to")
	SubmitCmd.Flags().StringVar(&answersFile, "answers", "", "YAML answers file")
	SubmitCmd.Flags().BoolVar(&assumeYes, "yes", false, "Approve network switches and signatures without asking")
	SubmitCmd.Flags().StringVar(&editUID, "edit", "", "UID of an indexed grant to edit")
	_ = SubmitCmd.MarkFlagRequired("project")
	_ = SubmitCmd.MarkFlagRequired("answers")
}

func submit(cmd *cobra.Command, args []string) error {
	configuration, logger, err := loadConfig()
	if err != nil {
		return err
	}
	answers, err := ReadAnswers(answersFile)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := indexer.NewClient(configuration.Indexer.URL, logger)
	communities, err := indexer.LoadCatalog(ctx, client)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	var confirm wallet.Confirm = wallet.AlwaysConfirm
	if !assumeYes {
		confirm = prompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	signer, err := wallet.Load(configuration.Path(configuration.Wallet.KeyFile), configuration.Wallet.Network, client, confirm, logger)
	if err != nil {
		return err
	}

	deps := app.Dependencies{
		Wallet:   signer,
		Builders: attestation.NewFactory(),
		Indexer:  client,
		Reporter: report.New(logger),
		Tracks:   client,
		Logger:   logger,
	}
	options := []app.Option{
		app.WithPolling(configuration.PollerOptions()...),
		app.WithStatusListener(func(status app.Status) {
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", status)
		}),
	}
	var wizard *app.Wizard
	if editUID != "" {
		wizard, err = editWizard(ctx, client, communities, deps, options)
		if err != nil {
			return err
		}
	} else {
		wizard = app.NewWizard(projectID, deps, options...)
	}
	defer wizard.Close()

	if err := answers.Apply(wizard, communities); err != nil {
		return errors.New(app.UserMessage(err, wizard.Session().Flow))
	}
	flow := wizard.Session().Flow
	caller := app.Caller{Address: signer.Address()}
	if community, ok := indexer.FindCommunity(communities, wizard.Session().Form.CommunityID); ok {
		caller.CommunityAdmin = isAdmin(community, signer.Address())
	}
	if records, err := client.FetchProjectRecords(ctx, projectID); err != nil {
		logger.Error("Failed reading project records", "project", projectID, "err", err)
	} else {
		caller.ProjectAdmin = isProjectAdmin(records, signer.Address())
	}

	result, err := wizard.Submit(ctx, caller)
	if err != nil {
		if result != nil && result.Receipt != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s\n", result.Receipt.TxHash.Hex())
		}
		return errors.New(app.UserMessage(err, flow))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s after %d attempts (tx %s)\n",
		result.Receipt.TargetUID.Hex(), result.PollAttempts, result.Receipt.TxHash.Hex())
	return nil
}

func editWizard(ctx context.Context, client *indexer.Client, communities []messages.Community, deps app.Dependencies, options []app.Option) (*app.Wizard, error) {
	records, err := client.FetchProjectRecords(ctx, projectID)
	if err != nil {
		return nil, err
	}
	entry, ok := records.Grant(common.HexToHash(editUID))
	if !ok {
		return nil, fmt.Errorf("project %s has no grant %s", projectID, editUID)
	}
	community, ok := indexer.FindCommunity(communities, entry.CommunityID)
	if !ok {
		return nil, fmt.Errorf("unknown community %q", entry.CommunityID)
	}
	return app.NewEditWizard(projectID, entry, community, deps, options...), nil
}

func isAdmin(community messages.Community, address common.Address) bool {
	for _, admin := range community.Admins {
		if common.IsHexAddress(admin) && common.HexToAddress(admin) == address {
			return true
		}
	}
	return false
}

// isProjectAdmin reports whether address already receives one of the project's grants.
func isProjectAdmin(records *messages.RecordSet, address common.Address) bool {
	for _, grant := range records.Grants {
		if grant.Recipient == address {
			return true
		}
	}
	return false
}

func prompter(in io.Reader, out io.Writer) wallet.Confirm {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := reader.ReadString('\n')
		line = strings.ToLower(strings.TrimSpace(line))
		return line == "y" || line == "yes"
	}
}
