package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/reconcile"
	"github.com/jmehdipour/ratebook/internal/repository"
	"github.com/spf13/cobra"
)

// scopeFlag resolves the --customer flag for kind. Rates need a customer; tariffs ignore it.
type scopeFlag struct {
	kind     model.Kind
	customer string
}

func (s *scopeFlag) bind(cmd *cobra.Command) {
	if s.kind == model.KindRate {
		cmd.Flags().StringVar(&s.customer, "customer", "", "customer name")
		_ = cmd.MarkFlagRequired("customer")
	}
}

func (s scopeFlag) scope() (model.Scope, error) {
	if s.kind == model.KindTariff {
		return model.GlobalScope, nil
	}
	name := model.NormalizeName(s.customer)
	if name == "" {
		return model.Scope{}, fmt.Errorf("--customer is required")
	}
	return model.CustomerScope(name), nil
}

func kindNoun(k model.Kind) string {
	if k == model.KindTariff {
		return "tariff"
	}
	return "rate"
}

func newRecordAddCmd(kind model.Kind) *cobra.Command {
	var (
		sf      = scopeFlag{kind: kind}
		rf      recordFlags
		replace string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add a %s, confirming before an existing one is replaced", kindNoun(kind)),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, err := sf.scope()
			if err != nil {
				return err
			}
			if _, err := rf.require(); err != nil {
				return err
			}
			confirm, err := confirmerFor(replace, newPrompter(cmd))
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rec := rf.record()
				outcome, err := a.svc.Add(ctx, scope, rec, confirm)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", scope, rec.Key(), describe(outcome))
				return nil
			})
		},
	}
	sf.bind(cmd)
	rf.bind(cmd)
	cmd.Flags().StringVar(&replace, "replace", "ask", "when the key already holds a different record: ask|always|never")
	return cmd
}

func newRecordEditCmd(kind model.Kind) *cobra.Command {
	var (
		sf      = scopeFlag{kind: kind}
		rf      recordFlags
		moveTo  keyFlags
		replace string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: fmt.Sprintf("Change fields of a %s; --new-* flags move it to another key", kindNoun(kind)),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, err := sf.scope()
			if err != nil {
				return err
			}
			old, err := rf.require()
			if err != nil {
				return err
			}
			confirm, err := confirmerFor(replace, newPrompter(cmd))
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				current, err := a.store.Find(ctx, scope, old)
				if err != nil {
					return err
				}
				if current == nil {
					return fmt.Errorf("%s in %s: %w", old, scope, repository.ErrNotFound)
				}
				rec := rf.apply(cmd, *current)
				if moveTo.loadPort != "" {
					rec.LoadPort = moveTo.loadPort
				}
				if moveTo.destPort != "" {
					rec.DestinationPort = moveTo.destPort
				}
				if moveTo.container != "" {
					rec.ContainerType = moveTo.container
				}
				outcome, err := a.svc.Edit(ctx, scope, old, rec, confirm)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", scope, rec.Normalize().Key(), describe(outcome))
				return nil
			})
		},
	}
	sf.bind(cmd)
	rf.bind(cmd)
	moveTo.bind(cmd, "new-")
	cmd.Flags().StringVar(&replace, "replace", "ask", "when the new key already holds a different record: ask|always|never")
	return cmd
}

func newRecordDeleteCmd(kind model.Kind) *cobra.Command {
	var (
		sf  = scopeFlag{kind: kind}
		kf  keyFlags
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: fmt.Sprintf("Delete a %s", kindNoun(kind)),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, err := sf.scope()
			if err != nil {
				return err
			}
			key, err := kf.require()
			if err != nil {
				return err
			}
			if !yes {
				ok, err := newPrompter(cmd).Confirm(fmt.Sprintf("Delete %s from %s?", key, scope), false)
				if err != nil || !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.svc.Delete(ctx, scope, key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: deleted\n", scope, key)
				return nil
			})
		},
	}
	sf.bind(cmd)
	kf.bind(cmd, "")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newImportCmd(kind model.Kind) *cobra.Command {
	var (
		customer string
		replace  string
		extend   bool
		flags    importFlags
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: fmt.Sprintf("Import %ss from an xlsx workbook", kindNoun(kind)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			confirm, err := confirmerFor(replace, p)
			if err != nil {
				return err
			}
			flags.apply(&cfg.Import)
			return withApp(cmd, func(ctx context.Context, a *app) error {
				scope := model.GlobalScope
				if kind == model.KindRate {
					scope = model.CustomerScope(customer)
				}
				var ext reconcile.Extender = p
				if extend {
					ext = reconcile.ExtendFunc(func(model.ConstantList, string) bool { return true })
				}
				rep, err := a.svc.Import(ctx, args[0], kind, scope, confirm, ext)
				if errors.Is(err, reconcile.ErrScopeRequired) {
					return fmt.Errorf("%w: pass --customer for a single-customer workbook", err)
				}
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), rep)
				return nil
			})
		},
	}
	if kind == model.KindRate {
		cmd.Flags().StringVar(&customer, "customer", "", "target customer for a single-customer workbook")
	}
	cmd.Flags().StringVar(&replace, "replace", "ask", "when a key already holds a different record: ask|always|never")
	cmd.Flags().BoolVar(&extend, "extend", false, "add unknown values to the constants without asking (with --unknown-values extend)")
	flags.bind(cmd)
	return cmd
}
