// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-archivenav"
)

// LsCmd lists a path and optionally descends into inner entries first
type LsCmd struct {
	Path  string   `arg:"" name:"path" help:"Directory or archive to load." type:"existing path"`
	Inner []string `arg:"" optional:"" name:"inner" help:"Entries to open, one level after another."`
}

// Run executes the ls command
func (c *LsCmd) Run(env *environment) error {
	snap, err := env.engine.Load(env.ctx, c.Path)
	if err != nil {
		return err
	}

	for _, name := range c.Inner {
		entry := env.engine.Find(name)
		if entry == nil {
			return fmt.Errorf("%w: %s", archivenav.ErrEntryNotFound, name)
		}
		res, err := env.engine.Open(env.ctx, entry)
		if err != nil {
			return err
		}
		switch res.Action {
		case archivenav.ActionOpenExternal:
			fmt.Fprintln(env.out, res.Path)
			return nil
		case archivenav.ActionLeftRoot:
			return fmt.Errorf("cannot leave the root %s", c.Path)
		case archivenav.ActionNone:
			return fmt.Errorf("cannot open %s", name)
		}
		snap = res.Snapshot
	}

	printListing(env.out, snap)
	return nil
}

// BrowseCmd starts an interactive session
type BrowseCmd struct {
	Path string `arg:"" name:"path" help:"Directory or archive to load." type:"existing path"`
}

// Run executes the browse command
func (c *BrowseCmd) Run(env *environment) error {
	snap, err := env.engine.Load(env.ctx, c.Path)
	if err != nil {
		return err
	}
	printListing(env.out, snap)
	return browse(env, env.in)
}

// PackCmd packs files into a new archive
type PackCmd struct {
	Format string   `short:"f" required:"" help:"Codec of the new archive, e.g. zip or tar."`
	Dst    string   `arg:"" name:"destination" help:"Archive to create." type:"path"`
	Src    []string `arg:"" name:"sources" help:"Files and directories to pack." type:"existing path"`
}

// Run executes the pack command
func (c *PackCmd) Run(env *environment) error {
	if err := env.engine.Pack(env.ctx, c.Format, c.Dst, c.Src...); err != nil {
		return err
	}
	fmt.Fprintln(env.out, c.Dst)
	return nil
}

// browseHelp is printed by the help command
const browseHelp = `commands:
  ls              list the current location
  cd <name>       enter a directory or archive
  ..              go up one level
  open <name>     open an entry, files are extracted and their path printed
  extract <name>  extract an entry and print its path
  pwd             print the current location
  refresh         list the current location again
  clean           remove temporary extractions
  quit            leave
`

// browse reads commands from in until quit or EOF. Errors of single commands are
// printed and do not end the session.
func browse(env *environment, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(env.out, "> ")
	for scanner.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)

		quit, err := execute(env, cmd, arg)
		if err != nil {
			fmt.Fprintf(env.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		fmt.Fprint(env.out, "> ")
	}
	return scanner.Err()
}

// execute runs a single browse command.
func execute(env *environment, cmd string, arg string) (bool, error) {
	engine := env.engine
	switch cmd {
	case "":
		return false, nil

	case "quit", "exit":
		return true, nil

	case "help":
		fmt.Fprint(env.out, browseHelp)

	case "ls":
		printListing(env.out, engine.Snapshot())

	case "pwd":
		fmt.Fprintln(env.out, strings.Join(engine.Snapshot().Breadcrumb, "/"))

	case "refresh":
		snap, err := engine.Refresh(env.ctx)
		if err != nil {
			return false, err
		}
		printListing(env.out, snap)

	case "clean":
		failed, err := engine.Clean(env.ctx)
		if err != nil {
			return false, fmt.Errorf("%d temporary directories could not be removed: %w", failed, err)
		}
		fmt.Fprintln(env.out, "cleaned")

	case "..":
		return false, open(env, archivenav.Parent)

	case "cd", "open":
		entry, err := find(engine, arg)
		if err != nil {
			return false, err
		}
		return false, open(env, entry)

	case "extract":
		entry, err := find(engine, arg)
		if err != nil {
			return false, err
		}
		path, err := engine.ExtractToTemp(env.ctx, entry)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(env.out, path)

	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

// open opens entry and prints the outcome.
func open(env *environment, entry *archivenav.Entry) error {
	res, err := env.engine.Open(env.ctx, entry)
	if err != nil {
		return err
	}
	switch res.Action {
	case archivenav.ActionListed:
		printListing(env.out, res.Snapshot)
	case archivenav.ActionLeftRoot:
		fmt.Fprintf(env.out, "already at the root, enclosing directory is %s\n", res.Path)
	case archivenav.ActionOpenExternal:
		fmt.Fprintln(env.out, res.Path)
	default:
		fmt.Fprintf(env.out, "cannot open %s\n", entry.Name)
	}
	return nil
}

// find looks up name in the current listing.
func find(engine *archivenav.Engine, name string) (*archivenav.Entry, error) {
	if len(name) == 0 {
		return nil, fmt.Errorf("missing entry name")
	}
	if name == archivenav.Parent.Name {
		return archivenav.Parent, nil
	}
	entry := engine.Find(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", archivenav.ErrEntryNotFound, name)
	}
	return entry, nil
}

// printListing prints the breadcrumb and the entries of snap.
func printListing(w io.Writer, snap *archivenav.Snapshot) {
	fmt.Fprintf(w, "%s\n", strings.Join(snap.Breadcrumb, "/"))
	for _, e := range snap.Listing {
		if e.IsParent() {
			continue
		}
		size := "-"
		if e.Size >= 0 {
			size = fmt.Sprintf("%d", e.Size)
		}
		kind := e.Kind.String()
		if e.Kind == archivenav.KindArchive {
			kind = fmt.Sprintf("%s:%s", kind, e.CodecID)
		}
		fmt.Fprintf(w, "%-12s %12s  %s\n", kind, size, e.Name)
	}
}
