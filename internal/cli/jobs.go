package cli

import (
	"github.com/aussiebroadwan/jobboard/internal/jobs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func (c *CLI) jobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Browse and manage job postings",
	}
	cmd.AddCommand(
		c.jobsListCommand(),
		c.jobsShowCommand(),
		c.jobsCreateCommand(),
		c.jobsEditCommand(),
		c.jobsDeleteCommand(),
	)
	return cmd
}

func (c *CLI) jobsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List job postings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.app.Jobs.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.Print(jobsView(list))
		},
	}
}

func (c *CLI) jobsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := c.app.Jobs.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printer.Print(jobView(job))
		},
	}
}

// jobFlags binds the editor fields to flags.
func jobFlags(fs *pflag.FlagSet, f *jobs.Form) {
	fs.StringVar(&f.Title, "title", f.Title, "job title")
	fs.StringVar(&f.Location, "location", f.Location, "location")
	fs.StringVar(&f.Description, "description", f.Description, "description")
	fs.StringVar(&f.Salary, "salary", f.Salary, "yearly salary")
	fs.StringVar(&f.EmploymentType, "type", f.EmploymentType, "employment type (full-time, part-time, contract)")
	fs.BoolVar(&f.IsActive, "active", f.IsActive, "accepting applications")
}

func (c *CLI) jobsCreateCommand() *cobra.Command {
	form := jobs.NewForm()

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.requireLogin(ctx); err != nil {
				return err
			}

			var err error
			if form.Title, err = c.ask(form.Title, "Title", ""); err != nil {
				return err
			}

			in, err := form.Input()
			if err != nil {
				return err
			}
			job, err := c.app.Jobs.Add(ctx, in)
			if err != nil {
				return err
			}
			c.printer.Success("Job %s created.", job.ID)
			c.app.Jobs.ClearSuccess()
			return c.printer.Print(jobView(job))
		},
	}

	jobFlags(cmd.Flags(), &form)
	return cmd
}

func (c *CLI) jobsEditCommand() *cobra.Command {
	var changes jobs.Form

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a job posting; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.requireLogin(ctx); err != nil {
				return err
			}

			current, err := c.app.Jobs.Fetch(ctx, args[0])
			if err != nil {
				return err
			}

			form := jobs.FormFromJob(*current)
			applyChanged(cmd.Flags(), &form, changes)

			in, err := form.Input()
			if err != nil {
				return err
			}
			job, err := c.app.Jobs.Edit(ctx, args[0], in)
			if err != nil {
				return err
			}
			c.printer.Success("Job %s updated.", job.ID)
			c.app.Jobs.ClearSuccess()
			return c.printer.Print(jobView(job))
		},
	}

	jobFlags(cmd.Flags(), &changes)
	return cmd
}

// applyChanged copies the fields whose flags were set onto form.
func applyChanged(fs *pflag.FlagSet, form *jobs.Form, changes jobs.Form) {
	if fs.Changed("title") {
		form.Title = changes.Title
	}
	if fs.Changed("location") {
		form.Location = changes.Location
	}
	if fs.Changed("description") {
		form.Description = changes.Description
	}
	if fs.Changed("salary") {
		form.Salary = changes.Salary
	}
	if fs.Changed("type") {
		form.EmploymentType = changes.EmploymentType
	}
	if fs.Changed("active") {
		form.IsActive = changes.IsActive
	}
}

func (c *CLI) jobsDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a job posting",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.requireLogin(ctx); err != nil {
				return err
			}

			if !yes {
				ok, err := c.prompt.Confirm("Are you sure you want to delete this job?")
				if err != nil {
					return err
				}
				if !ok {
					c.printer.Info("Nothing deleted.")
					return nil
				}
			}

			if err := c.app.Jobs.Remove(ctx, args[0]); err != nil {
				return err
			}
			c.printer.Success("Job %s deleted.", args[0])
			c.app.Jobs.ClearSuccess()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
