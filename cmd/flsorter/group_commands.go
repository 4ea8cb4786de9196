package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"flsorter/internal/catalog"
	"flsorter/internal/config"
	"flsorter/internal/shortcut"
	"flsorter/internal/vstscan"
)

type groupView struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Plugins  []string `json:"plugins"`
	File     string   `json:"file"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var typeFlag string
	var members bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured plugin groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			cat, err := runner.LoadCatalog()
			if err != nil {
				return err
			}
			categories := catalog.Categories
			if strings.TrimSpace(typeFlag) != "" {
				category, err := catalog.ParseCategory(typeFlag)
				if err != nil {
					return err
				}
				categories = []catalog.Category{category}
			}

			var views []groupView
			for _, category := range categories {
				for _, g := range cat.Groups(category) {
					views = append(views, groupView{
						Category: category.String(),
						Name:     g.Name,
						Plugins:  slices.Clone(g.Members),
						File:     relative(ctx.config.Dir, g.Source),
					})
				}
			}
			if asJSON {
				if views == nil {
					views = []groupView{}
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No plugin groups defined in %s\n", ctx.config.Dir)
				return nil
			}
			headers := []string{"Category", "Group", "Plugins", "File"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}
			if members {
				headers = append(headers, "Members")
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				row := []string{v.Category, v.Name, strconv.Itoa(len(v.Plugins)), v.File}
				if members {
					row = append(row, strings.Join(v.Plugins, ", "))
				}
				rows = append(rows, row)
			}
			writeTable(out, headers, rows, aligns)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit groups as JSON")
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Only list effect or generator groups")
	cmd.Flags().BoolVarP(&members, "members", "m", false, "Include the plugin names of every group")
	return cmd
}

func newNewCommand(ctx *commandContext) *cobra.Command {
	var name, typeFlag, fileName string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "new <plugin>...",
		Short: "Create a plugin group file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			category, err := catalog.ParseCategory(typeFlag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			plugins := uniquePlugins(args)
			return saveGroup(cmd.OutOrStdout(), cfg, catalog.Spec{Name: name, Category: category, Members: plugins}, fileName, overwrite)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Group name (becomes the folder name)")
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Plugin type: effect or generator")
	cmd.Flags().StringVarP(&fileName, "file-name", "f", "", "Group file name (default derived from --name)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing group file")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var name, typeFlag, fileName string
	var recurse, overwrite bool
	var effects []string

	cmd := &cobra.Command{
		Use:   "generate <dir>",
		Short: "Create a plugin group from the VST binaries in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			category, err := catalog.ParseCategory(typeFlag)
			if err != nil {
				return err
			}
			names, err := vstscan.Names(dir, recurse)
			if err != nil {
				return err
			}

			group := strings.TrimSpace(name)
			if group == "" {
				group = vstscan.GroupName(dir)
			}
			if strings.TrimSpace(fileName) == "" {
				fileName = catalog.FileName(group)
			}

			if len(effects) == 0 && !cmd.Flags().Changed("type") && len(names) > 1 &&
				isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
				effects, err = pickEffects(cmd.InOrStdin(), cmd.OutOrStdout(), names)
				if err != nil {
					return err
				}
			}

			split := map[catalog.Category][]string{}
			if len(effects) > 0 {
				marked := map[string]bool{}
				for _, e := range effects {
					marked[shortcut.Canonical(e)] = true
				}
				for _, n := range names {
					if marked[shortcut.Canonical(n)] {
						split[catalog.Effect] = append(split[catalog.Effect], n)
					} else {
						split[catalog.Generator] = append(split[catalog.Generator], n)
					}
				}
			} else {
				split[category] = names
			}

			out := cmd.OutOrStdout()
			for _, c := range catalog.Categories {
				if len(split[c]) == 0 {
					continue
				}
				if err := saveGroup(out, cfg, catalog.Spec{Name: group, Category: c, Members: split[c]}, fileName, overwrite); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Group name (default: the folder name)")
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "generator", "Plugin type for every found plugin: effect or generator")
	cmd.Flags().StringVarP(&fileName, "file-name", "f", "", "Group file name (default derived from the group name)")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include plugins in subfolders")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing group files")
	cmd.Flags().StringSliceVarP(&effects, "effect", "e", nil, "Plugins to file as effects; the rest become generators (overrides --type, asked interactively on a terminal)")
	return cmd
}

func saveGroup(out io.Writer, cfg *config.Config, spec catalog.Spec, fileName string, overwrite bool) error {
	path, err := catalog.WriteGroup(cfg.Dir, spec, fileName, overwrite)
	if err != nil {
		if errors.Is(err, catalog.ErrGroupExists) {
			return fmt.Errorf("%w (use --overwrite to replace it)", err)
		}
		return err
	}
	fmt.Fprintf(out, "Saved %s to %s\n", plural(len(spec.Members), spec.Category.String()+" plugin"), relative(cfg.Dir, path))
	return nil
}

func uniquePlugins(args []string) []string {
	seen := map[string]bool{}
	var plugins []string
	for _, arg := range args {
		trimmed := strings.TrimSpace(arg)
		key := shortcut.Canonical(trimmed)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		plugins = append(plugins, trimmed)
	}
	return plugins
}
