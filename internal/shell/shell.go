// Package shell is a line-oriented driver for a ring backend.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// DefaultTimeout bounds each command issued to the backend.
const DefaultTimeout = 5 * time.Second

// ErrQuit is returned by RunLine for the exit command.
var ErrQuit = errors.New("quit")

const helpText = `commands:
  mount <n>           build n more nodes on generated addresses
  nodes               list ring members in order
  members             list roster slots and whether they are active
  activate <slot>     join the node held in a roster slot
  deactivate <slot>   remove the node held in a roster slot
  insert <name>       store a resource on its responsible node
  search <name>       look a resource up on its responsible node
  resources           list every stored resource
  help                show this text
  exit                leave the shell
`

// Shell reads commands and issues them to a Backend.
type Shell struct {
	backend Backend
	out     io.Writer
	timeout time.Duration
}

// New creates a shell writing to out.
func New(backend Backend, out io.Writer) *Shell {
	return &Shell{backend: backend, out: out, timeout: DefaultTimeout}
}

// Run executes commands from in until exit, end of input or ctx is done.
// Command failures are printed and do not stop the loop. Lines are read on a
// separate goroutine so that cancelling ctx returns while a read is still
// blocked; that goroutine exits when in is closed or reaches end of input.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprint(s.out, "> ")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return ctx.Err()
				}
			}
			if err := s.RunLine(ctx, line); errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprint(s.out, "> ")
		}
	}
}

// RunLine executes a single command line. On failure it prints a line
// starting with ERR and returns the error. A search miss prints NOTFOUND and
// is not an error.
func (s *Shell) RunLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	cmd, arg := splitOnce(line)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var err error
	switch strings.ToLower(cmd) {
	case "mount":
		err = s.mount(ctx, arg)
	case "nodes":
		err = s.nodes(ctx)
	case "members":
		err = s.members(ctx)
	case "activate":
		err = s.activate(ctx, arg)
	case "deactivate":
		err = s.deactivate(ctx, arg)
	case "insert":
		err = s.insert(ctx, arg)
	case "search":
		err = s.search(ctx, arg)
	case "resources":
		err = s.resources(ctx)
	case "help":
		fmt.Fprint(s.out, helpText)
	case "exit", "quit":
		return ErrQuit
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintf(s.out, "ERR %v\n", err)
	}
	return err
}

func splitOnce(line string) (string, string) {
	cmd, arg, _ := strings.Cut(line, " ")
	return cmd, strings.TrimSpace(arg)
}

func intArg(arg, name string) (int, error) {
	if arg == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, arg)
	}
	return n, nil
}

func (s *Shell) table() *tabwriter.Writer {
	return tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
}

func (s *Shell) mount(ctx context.Context, arg string) error {
	n, err := intArg(arg, "node count")
	if err != nil {
		return err
	}
	nodes, err := s.backend.Mount(ctx, n)
	for _, node := range nodes {
		fmt.Fprintf(s.out, "joined %s id=%s\n", node.Addr, node.ID)
	}
	return err
}

func (s *Shell) nodes(ctx context.Context) error {
	nodes, err := s.backend.Nodes(ctx)
	if err != nil {
		return err
	}
	w := s.table()
	fmt.Fprintln(w, "POS\tID\tADDRESS\tPREDECESSOR\tSUCCESSOR\tRESOURCES")
	for pos, n := range nodes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", pos, n.ID, n.Addr, n.Predecessor, n.Successor, len(n.Resources))
	}
	return w.Flush()
}

func (s *Shell) members(ctx context.Context) error {
	members, err := s.backend.Members(ctx)
	if err != nil {
		return err
	}
	w := s.table()
	fmt.Fprintln(w, "SLOT\tADDRESS\tID\tACTIVE")
	for _, m := range members {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", m.Slot, m.Addr, m.ID, m.Active)
	}
	return w.Flush()
}

func (s *Shell) activate(ctx context.Context, arg string) error {
	slot, err := intArg(arg, "slot")
	if err != nil {
		return err
	}
	node, err := s.backend.Activate(ctx, slot)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "joined %s id=%s\n", node.Addr, node.ID)
	return nil
}

func (s *Shell) deactivate(ctx context.Context, arg string) error {
	slot, err := intArg(arg, "slot")
	if err != nil {
		return err
	}
	node, err := s.backend.Deactivate(ctx, slot)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "left %s id=%s dropped=%d\n", node.Addr, node.ID, len(node.Resources))
	return nil
}

func (s *Shell) insert(ctx context.Context, arg string) error {
	if arg == "" {
		return errors.New("missing resource name")
	}
	node, err := s.backend.Insert(ctx, arg)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "stored %s on %s id=%s\n", arg, node.Addr, node.ID)
	return nil
}

func (s *Shell) search(ctx context.Context, arg string) error {
	if arg == "" {
		return errors.New("missing resource name")
	}
	res, err := s.backend.Search(ctx, arg)
	if err != nil {
		return err
	}
	if !res.Found {
		fmt.Fprintf(s.out, "NOTFOUND %s\n", arg)
		return nil
	}
	fmt.Fprintf(s.out, "found %s on %s id=%s\n", res.Resource, res.Node.Addr, res.Node.ID)
	return nil
}

func (s *Shell) resources(ctx context.Context) error {
	resources, err := s.backend.Resources(ctx)
	if err != nil {
		return err
	}
	w := s.table()
	fmt.Fprintln(w, "RESOURCE\tOWNER")
	for _, r := range resources {
		fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Owner)
	}
	return w.Flush()
}
