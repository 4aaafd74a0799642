package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dogmatiq/treeset/set"
	"github.com/dogmatiq/treeset/treeset"
	"github.com/xlab/treeprint"
)

// runner executes scripts against a set.
//
// Each line of a script is a single command. Blank lines and lines beginning
// with '#' are ignored. The supported commands are:
//
//	add <n>       insert n
//	has <n>       print whether n is a member
//	remove <n>    remove n
//	compact       compact the tree
//	members       print the members of the set in ascending order
//	dump          print the structure of the tree
type runner struct {
	Store  *treeset.Store[int64]
	Prefix string
	Set    string
	Out    io.Writer
	Logger *slog.Logger
}

// Run executes the script read from in.
func (r *runner) Run(ctx context.Context, in io.Reader) error {
	store := set.WithNamePrefix[int64](r.Store, r.Prefix)

	s, err := store.Open(ctx, r.Set)
	if err != nil {
		return err
	}
	defer s.Close()

	scanner := bufio.NewScanner(in)
	line := 0

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		cmd, arg, _ := strings.Cut(text, " ")
		arg = strings.TrimSpace(arg)

		log := r.Logger.With("line", line, "command", cmd)

		switch cmd {
		case "add", "has", "remove":
			v, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("line %d: invalid element %q: %w", line, arg, err)
			}

			switch cmd {
			case "add":
				err = s.Add(ctx, v)
			case "remove":
				err = s.Remove(ctx, v)
			case "has":
				var ok bool
				ok, err = s.Has(ctx, v)
				if err == nil {
					fmt.Fprintf(r.Out, "%d %t\n", v, ok)
				}
			}
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			log.Debug("applied operation", "elem", v)

		case "compact":
			if err := s.Compact(ctx); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			log.Info("requested compaction")

		case "members":
			var members []string
			if err := s.Range(
				ctx,
				func(_ context.Context, v int64) (bool, error) {
					members = append(members, strconv.FormatInt(v, 10))
					return true, nil
				},
			); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			fmt.Fprintln(r.Out, strings.Join(members, " "))
			log.Debug("listed members", "count", len(members))

		case "dump":
			root, err := r.Store.Inspect(ctx, r.Prefix+r.Set)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			fmt.Fprint(r.Out, render(root))
			log.Debug("dumped tree", "workers", root.Len())

		default:
			return fmt.Errorf("line %d: unrecognized command %q", line, cmd)
		}
	}

	return scanner.Err()
}

// render returns a textual representation of the tree rooted at n.
func render(n *treeset.Node[int64]) string {
	tree := treeprint.NewWithRoot(label(n))
	addChildren(tree, n)
	return tree.String()
}

func addChildren(tree treeprint.Tree, n *treeset.Node[int64]) {
	for _, c := range []struct {
		Side string
		Node *treeset.Node[int64]
	}{
		{"L", n.Left},
		{"R", n.Right},
	} {
		if c.Node == nil {
			continue
		}

		branch := tree.AddMetaBranch(c.Side, label(c.Node))
		addChildren(branch, c.Node)
	}
}

func label(n *treeset.Node[int64]) string {
	switch {
	case n.Sentinel:
		return "(root)"
	case n.Tombstoned:
		return fmt.Sprintf("%d (removed)", n.Elem)
	default:
		return strconv.FormatInt(n.Elem, 10)
	}
}
