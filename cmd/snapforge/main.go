// snapforge turns a declarative project description into a finalized,
// validated project model. The heavy lifting lives in the library packages;
// this binary is the thin front-end the external build executor and humans
// share: expand, validate, and inspect the project before any build runs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kingrea/snapforge/extensions"
	"github.com/kingrea/snapforge/internal/config"
	"github.com/kingrea/snapforge/internal/document"
	"github.com/kingrea/snapforge/internal/logging"
	"github.com/kingrea/snapforge/internal/orchestrator"
	"github.com/kingrea/snapforge/internal/tui"
)

const usage = `snapforge packages a declarative project description.

Usage:
  snapforge expand [-f file] [-watch]   print the fully expanded project
  snapforge validate [-f file]          expand and validate the project
  snapforge list-extensions             show registered extensions
  snapforge inspect [-f file]           browse the expanded project
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "snapforge: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	registry := extensions.NewRegistry()
	if err := extensions.RegisterDefinitionDir(registry, cfg.ExtensionsDirPath()); err != nil {
		return err
	}

	switch args[0] {
	case "expand":
		return expandCommand(cfg, registry, args[1:])
	case "validate":
		return validateCommand(cfg, registry, args[1:])
	case "list-extensions":
		return listExtensionsCommand(registry)
	case "inspect":
		return inspectCommand(cfg, registry, args[1:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func projectFlag(fs *flag.FlagSet) *string {
	return fs.String("f", "", "project file (default "+config.DefaultProjectFile+")")
}

func projectPath(cfg *config.Config, override string) string {
	if override != "" {
		cfg.ProjectFile = override
	}
	return cfg.ProjectFilePath()
}

func expandCommand(cfg *config.Config, registry *extensions.Registry, args []string) error {
	fs := flag.NewFlagSet("expand", flag.ContinueOnError)
	file := projectFlag(fs)
	watch := fs.Bool("watch", false, "re-expand whenever the project file changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := projectPath(cfg, *file)
	if *watch {
		return watchExpand(path, registry)
	}
	out, err := expandFile(path, registry)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// expandFile is the dry-run surface: the expanded document is printed, never
// validated, so a project mid-edit can still be previewed.
func expandFile(path string, registry *extensions.Registry) ([]byte, error) {
	doc, err := document.LoadFile(path)
	if err != nil {
		return nil, err
	}
	expanded, err := extensions.Expand(doc, registry)
	if err != nil {
		return nil, err
	}
	return expanded.Marshal()
}

func validateCommand(cfg *config.Config, registry *extensions.Registry, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	file := projectFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := openLog(cfg)
	defer log.Close()

	doc, err := document.LoadFile(projectPath(cfg, *file))
	if err != nil {
		return err
	}
	o := orchestrator.New(registry, orchestrator.WithLogger(log))
	proj, err := o.OnProjectLoaded(doc)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %s (%d parts, %d apps)\n", proj.Name, len(proj.Parts), len(proj.Apps))
	return nil
}

func listExtensionsCommand(registry *extensions.Registry) error {
	names := registry.Names()
	if len(names) == 0 {
		fmt.Println("no extensions registered")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func inspectCommand(cfg *config.Config, registry *extensions.Registry, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	file := projectFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := openLog(cfg)
	defer log.Close()

	doc, err := document.LoadFile(projectPath(cfg, *file))
	if err != nil {
		return err
	}
	o := orchestrator.New(registry, orchestrator.WithLogger(log))
	proj, err := o.OnProjectLoaded(doc)
	if err != nil {
		return err
	}
	return tui.Run(proj, o.Document())
}

// openLog attaches the workspace activity log; a failure to create it only
// costs the log, not the command.
func openLog(cfg *config.Config) *logging.Logger {
	if err := config.InitWorkspace(cfg.ProjectDir()); err != nil {
		return nil
	}
	log, err := logging.New(cfg.WorkspacePath())
	if err != nil {
		return nil
	}
	log.SetDebug(cfg.Debug)
	return log
}
