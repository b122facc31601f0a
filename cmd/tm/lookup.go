package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// The module, version and label commands share one implementation; only
// the entity kind differs.

type lookupOps struct {
	kind   string
	create func(cmd *cobra.Command, projectID, name string) (string, error)
	rename func(cmd *cobra.Command, projectID, oldName, newName string) error
	remove func(cmd *cobra.Command, projectID, name string) error
	list   func(cmd *cobra.Command, projectID string) ([]string, error)
}

func newLookupCmd(ops lookupOps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     ops.kind,
		GroupID: "setup",
		Short:   fmt.Sprintf("Manage %ss", ops.kind),
	}

	add := &cobra.Command{
		Use:   "add <project> <name>",
		Short: fmt.Sprintf("Add a %s to a project", ops.kind),
		Args:  cobra.ExactArgs(2),
		Run: func(c *cobra.Command, args []string) {
			projectID := resolveProject(args[0]).ID
			name, err := ops.create(c, projectID, args[1])
			if err != nil {
				fatalError("%v", err)
			}
			if !jsonOutput {
				fmt.Printf("%s Added %s %s\n", green("✓"), ops.kind, name)
			}
		},
	}

	rename := &cobra.Command{
		Use:   "rename <project> <name> <new-name>",
		Short: fmt.Sprintf("Rename a %s", ops.kind),
		Args:  cobra.ExactArgs(3),
		Run: func(c *cobra.Command, args []string) {
			projectID := resolveProject(args[0]).ID
			if err := ops.rename(c, projectID, args[1], args[2]); err != nil {
				fatalError("%v", err)
			}
			if !jsonOutput {
				fmt.Printf("%s Renamed %s to %s\n", green("✓"), args[1], args[2])
			}
		},
	}

	remove := &cobra.Command{
		Use:   "delete <project> <name>",
		Short: fmt.Sprintf("Delete a %s (blocked while issues reference it)", ops.kind),
		Args:  cobra.ExactArgs(2),
		Run: func(c *cobra.Command, args []string) {
			projectID := resolveProject(args[0]).ID
			if err := ops.remove(c, projectID, args[1]); err != nil {
				fatalError("%v", err)
			}
			if !jsonOutput {
				fmt.Printf("%s Deleted %s %s\n", green("✓"), ops.kind, args[1])
			}
		},
	}

	list := &cobra.Command{
		Use:   "list <project>",
		Short: fmt.Sprintf("List a project's %ss", ops.kind),
		Args:  cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			projectID := resolveProject(args[0]).ID
			names, err := ops.list(c, projectID)
			if err != nil {
				fatalError("%v", err)
			}
			if jsonOutput {
				outputJSON(names)
				return
			}
			for _, name := range names {
				fmt.Println(name)
			}
		},
	}

	cmd.AddCommand(add, rename, remove, list)
	return cmd
}

var moduleCmd = newLookupCmd(lookupOps{
	kind: "module",
	create: func(c *cobra.Command, projectID, name string) (string, error) {
		m, err := eng.CreateModule(c.Context(), requireActor(), projectID, name)
		if err != nil {
			return "", err
		}
		return m.Name, nil
	},
	rename: func(c *cobra.Command, projectID, oldName, newName string) error {
		return eng.RenameModule(c.Context(), requireActor(), resolveModule(projectID, oldName).ID, newName)
	},
	remove: func(c *cobra.Command, projectID, name string) error {
		return eng.DeleteModule(c.Context(), requireActor(), resolveModule(projectID, name).ID)
	},
	list: func(c *cobra.Command, projectID string) ([]string, error) {
		ms, err := eng.ListModules(c.Context(), requireActor(), projectID)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(ms))
		for i, m := range ms {
			names[i] = m.Name
		}
		return names, nil
	},
})

var versionCmd = newLookupCmd(lookupOps{
	kind: "version",
	create: func(c *cobra.Command, projectID, name string) (string, error) {
		v, err := eng.CreateVersion(c.Context(), requireActor(), projectID, name)
		if err != nil {
			return "", err
		}
		return v.Name, nil
	},
	rename: func(c *cobra.Command, projectID, oldName, newName string) error {
		return eng.RenameVersion(c.Context(), requireActor(), resolveVersion(projectID, oldName).ID, newName)
	},
	remove: func(c *cobra.Command, projectID, name string) error {
		return eng.DeleteVersion(c.Context(), requireActor(), resolveVersion(projectID, name).ID)
	},
	list: func(c *cobra.Command, projectID string) ([]string, error) {
		vs, err := eng.ListVersions(c.Context(), requireActor(), projectID)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(vs))
		for i, v := range vs {
			names[i] = v.Name
		}
		return names, nil
	},
})

var labelCmd = func() *cobra.Command {
	cmd := newLookupCmd(lookupOps{
		kind: "label",
		create: func(c *cobra.Command, projectID, name string) (string, error) {
			color, _ := c.Flags().GetString("color")
			l, err := eng.CreateLabel(c.Context(), requireActor(), projectID, name, color)
			if err != nil {
				return "", err
			}
			return l.Name, nil
		},
		rename: func(c *cobra.Command, projectID, oldName, newName string) error {
			return eng.RenameLabel(c.Context(), requireActor(), resolveLabel(projectID, oldName).ID, newName)
		},
		remove: func(c *cobra.Command, projectID, name string) error {
			return eng.DeleteLabel(c.Context(), requireActor(), resolveLabel(projectID, name).ID)
		},
		list: func(c *cobra.Command, projectID string) ([]string, error) {
			ls, err := eng.ListLabels(c.Context(), requireActor(), projectID)
			if err != nil {
				return nil, err
			}
			names := make([]string, len(ls))
			for i, l := range ls {
				names[i] = l.Name
			}
			return names, nil
		},
	})
	for _, sub := range cmd.Commands() {
		if sub.Name() == "add" {
			sub.Flags().String("color", "", "Display color, e.g. #cc0000")
		}
	}
	return cmd
}()

func init() {
	rootCmd.AddCommand(moduleCmd, versionCmd, labelCmd)
}
