package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"pathfinder/internal/codec"
	"pathfinder/internal/config"
	"pathfinder/internal/domain"
	"pathfinder/internal/service"
	"pathfinder/internal/watcher"

	"go.uber.org/zap"
)

// Registration hints shown before anything is sent. The server has the
// final say on what it accepts.
const (
	minUsernameLen = 3
	minPasswordLen = 4
)

var errNotLoggedIn = errors.New("not logged in (run 'pathfinder login')")

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":    {"log in and store the session", cmdLogin},
	"register": {"create an account", cmdRegister},
	"logout":   {"forget the stored session", cmdLogout},
	"whoami":   {"show the logged in user", cmdWhoami},
	"nodes":    {"list nodes", cmdNodes},
	"edges":    {"list edges", cmdEdges},
	"add-node": {"add-node NAME: create a node", cmdAddNode},
	"rm-node":  {"rm-node ID: delete a node and its edges", cmdRemoveNode},
	"add-edge": {"add-edge SRC DST WEIGHT: create a directed edge", cmdAddEdge},
	"rm-edge":  {"rm-edge ID: delete an edge", cmdRemoveEdge},
	"bfs":      {"bfs START: breadth-first traversal", cmdTraversal},
	"path":     {"path SRC DST: shortest path", cmdShortestPath},
	"export":   {"export [-f json|yaml] [FILE]: write the graph", cmdExport},
	"seed":     {"seed [-watch] FILE|DIR: load nodes and edges (json, yaml, csv, or a dir of nodes.csv/edges.csv)", cmdSeed},
	"config":   {"config [-init]: show or create the config file", cmdConfig},
}

func newFlags(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func wantArgs(name string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s expects %d argument(s), got %d", errUsage, name, n, len(args))
	}
	return nil
}

// resume loads the stored session and the dashboard, or fails when there is
// nothing to resume
func (a *app) resume(ctx context.Context) error {
	ok, err := a.orch.Resume(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNotLoggedIn
	}
	return nil
}

// nodeRef turns a node name into its id so commands accept either. Anything
// else is passed through for the orchestrator to reject.
func (a *app) nodeRef(raw string) string {
	if _, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return raw
	}
	if n, ok := a.orch.Snapshot().NodeByName(raw); ok {
		return strconv.FormatInt(n.ID, 10)
	}
	return raw
}

// ============================================================================
// Session
// ============================================================================

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login", a)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *username == "" {
		if *username, err = a.prompt("Username: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.promptPassword("Password: "); err != nil {
			return err
		}
	}

	user, err := a.orch.Login(ctx, *username, *password)
	if err != nil {
		return err
	}

	snap := a.orch.Snapshot()
	return a.render(user, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Logged in as %s (%d nodes, %d edges)\n", user.Username, len(snap.Nodes), len(snap.Edges))
		return err
	})
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register", a)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *username == "" {
		if *username, err = a.prompt("Username: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.promptPassword("Password: "); err != nil {
			return err
		}
	}

	if len(strings.TrimSpace(*username)) < minUsernameLen {
		return domain.NewError(domain.KindValidation, fmt.Sprintf("username must be at least %d characters", minUsernameLen))
	}
	if len(*password) < minPasswordLen {
		return domain.NewError(domain.KindValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	if err := a.orch.Register(ctx, *username, *password); err != nil {
		return err
	}
	return a.say("Registered %s; run 'pathfinder login' to sign in", *username)
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("logout", args, 0); err != nil {
		return err
	}
	if err := a.orch.Logout(ctx); err != nil {
		return err
	}
	return a.say("Logged out")
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("whoami", args, 0); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	user, _ := a.orch.User()
	return a.render(user, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s (id %d) at %s\n", user.Username, user.ID, a.api.BaseURL())
		return err
	})
}

// ============================================================================
// Graph
// ============================================================================

func cmdNodes(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("nodes", args, 0); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	snap := a.orch.Snapshot()
	return a.render(snap.Nodes, func(w io.Writer) error {
		return table(w, "ID\tNAME", func(tw io.Writer) {
			for _, n := range snap.Nodes {
				fmt.Fprintf(tw, "%d\t%s\n", n.ID, n.Name)
			}
		})
	})
}

func cmdEdges(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("edges", args, 0); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	views := a.orch.Snapshot().EdgeViews()
	return a.render(views, func(w io.Writer) error {
		return table(w, "ID\tSRC\tDST\tWEIGHT", func(tw io.Writer) {
			for _, e := range views {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Src, e.Dst, strconv.FormatFloat(e.Weight, 'f', -1, 64))
			}
		})
	})
}

func cmdAddNode(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("add-node", args, 1); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	node, err := a.orch.CreateNode(ctx, args[0])
	if err != nil {
		return err
	}
	return a.render(node, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Created node %q (id %d)\n", node.Name, node.ID)
		return err
	})
}

func cmdRemoveNode(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("rm-node", args, 1); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	ref := a.nodeRef(args[0])
	deleted, err := a.orch.DeleteNode(ctx, ref)
	if err != nil {
		return err
	}
	if !deleted {
		return a.say("Cancelled")
	}
	return a.say("Deleted node %s", ref)
}

func cmdAddEdge(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("add-edge", args, 3); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	edge, err := a.orch.CreateEdge(ctx, a.nodeRef(args[0]), a.nodeRef(args[1]), args[2])
	if err != nil {
		return err
	}

	snap := a.orch.Snapshot()
	return a.render(edge, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Created edge %d: %s → %s (%s)\n", edge.ID,
			snap.NodeName(edge.SrcID), snap.NodeName(edge.DstID), strconv.FormatFloat(edge.Weight, 'f', -1, 64))
		return err
	})
}

func cmdRemoveEdge(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("rm-edge", args, 1); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	deleted, err := a.orch.DeleteEdge(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return a.say("Cancelled")
	}
	return a.say("Deleted edge %s", args[0])
}

// ============================================================================
// Algorithms
// ============================================================================

func cmdTraversal(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("bfs", args, 1); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	view, err := a.orch.RunTraversal(ctx, a.nodeRef(args[0]))
	if err != nil {
		return err
	}
	return a.render(view, func(w io.Writer) error {
		fmt.Fprintf(w, "Order: %s\n\n", strings.Join(view.Order, ", "))
		return table(w, "NODE\tPARENT\tDEPTH", func(tw io.Writer) {
			for _, t := range view.Tree {
				parent := t.Parent
				if parent == "" {
					parent = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\n", t.Node, parent, t.Depth)
			}
		})
	})
}

func cmdShortestPath(ctx context.Context, a *app, args []string) error {
	if err := wantArgs("path", args, 2); err != nil {
		return err
	}
	if err := a.resume(ctx); err != nil {
		return err
	}

	view, err := a.orch.RunShortestPath(ctx, a.nodeRef(args[0]), a.nodeRef(args[1]))
	if err != nil {
		return err
	}
	return a.render(view, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, view.String())
		return err
	})
}

// ============================================================================
// Files
// ============================================================================

func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := newFlags("export", a)
	format := fs.String("f", "", "json or yaml (default: from the file extension, else yaml)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: export takes at most one file", errUsage)
	}
	path := fs.Arg(0)

	if *format == "" {
		*format = codec.FormatFromPath(path)
	}
	exporter, err := codec.ExporterFor(*format)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if err := a.resume(ctx); err != nil {
		return err
	}
	snap := a.orch.Snapshot()

	if path == "" || path == "-" {
		return exporter.Export(snap, a.out)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := exporter.Export(snap, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "Exported %d nodes and %d edges to %s\n", len(snap.Nodes), len(snap.Edges), path)
	return nil
}

func cmdSeed(ctx context.Context, a *app, args []string) error {
	fs := newFlags("seed", a)
	watch := fs.Bool("watch", false, "re-seed whenever the file changes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := wantArgs("seed", fs.Args(), 1); err != nil {
		return err
	}
	path := fs.Arg(0)
	if *watch {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return fmt.Errorf("%w: -watch needs a single seed file, not a directory", errUsage)
		}
	}

	if err := a.resume(ctx); err != nil {
		return err
	}
	if err := a.seedFile(ctx, path); err != nil {
		return err
	}
	if !*watch {
		return nil
	}

	w := watcher.New(path, a.seedFile, a.logger.Named("watcher"))
	if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// seedFile parses path and applies it. A directory is read as nodes.csv
// plus edges.csv.
func (a *app) seedFile(ctx context.Context, path string) error {
	file, err := readSeed(path)
	if err != nil {
		return err
	}

	result, err := a.orch.Seed(ctx, file)
	if err != nil {
		return err
	}
	return a.render(result, func(w io.Writer) error {
		return printSeedResult(w, result)
	})
}

func readSeed(path string) (*domain.SeedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	if info.IsDir() {
		return codec.LoadCSVDir(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	importer, err := codec.ImporterFor(codec.FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	file, err := importer.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

func printSeedResult(w io.Writer, r *service.SeedResult) error {
	if !r.Changed() {
		_, err := fmt.Fprintf(w, "Graph already up to date (%d nodes, %d edges)\n", r.NodesExisting, r.EdgesExisting)
		return err
	}
	_, err := fmt.Fprintf(w, "Nodes: %d created, %d existing. Edges: %d created, %d replaced, %d existing, %d skipped\n",
		r.NodesCreated, r.NodesExisting, r.EdgesCreated, r.EdgesReplaced, r.EdgesExisting, r.EdgesSkipped)
	return err
}

// ============================================================================
// Config
// ============================================================================

func cmdConfig(_ context.Context, a *app, args []string) error {
	fs := newFlags("config", a)
	initFile := fs.Bool("init", false, "write a default config file if none exists")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *initFile {
		if a.cfgPath != "" {
			return a.say("Config already exists at %s", a.cfgPath)
		}
		path := config.DefaultConfigPath()
		if err := a.cfg.Save(path); err != nil {
			return err
		}
		a.logger.Info("wrote config", zap.String("path", path))
		return a.say("Wrote %s", path)
	}

	source := a.cfgPath
	if source == "" {
		source = "(defaults)"
	}
	return a.render(a.cfg, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Config: %s\n%s\n", source, a.cfg.Summary())
		return err
	})
}
