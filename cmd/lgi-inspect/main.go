// lgi-inspect is an interactive workbench for the proxy bridge. It hosts a
// native object system, lets you create objects and move their reference
// counts by hand, and shows how the proxy caches react.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/rbarraud/lgi"
	"github.com/rbarraud/lgi/gtype"
	"github.com/rbarraud/lgi/native"
)

type session struct {
	rt      *lgi.Runtime
	sys     *native.System
	types   *gtype.Registry
	proxies map[native.Ptr]*lgi.Proxy // proxies held live by the session
}

func main() {
	manifest := flag.String("manifest", "", "TOML type manifest to load at startup")
	flag.Parse()

	types := gtype.NewRegistry()
	sys := native.NewSystem(types)
	s := &session{
		rt:      lgi.New(sys),
		sys:     sys,
		types:   types,
		proxies: make(map[native.Ptr]*lgi.Proxy),
	}

	if *manifest != "" {
		if err := gtype.LoadManifest(*manifest, types); err != nil {
			fmt.Fprintf(os.Stderr, "error loading manifest: %v\n", err)
			os.Exit(1)
		}
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("% ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}
		if err := s.run(fields[0], fields[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			if !interactive {
				os.Exit(1)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
	}
}

func (s *session) run(cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Print(usage)
		return nil
	case "types":
		return s.cmdTypes(args)
	case "register":
		return s.cmdRegister(args)
	case "new":
		return s.cmdNew(args)
	case "ref", "unref", "refsink":
		return s.cmdRefOp(cmd, args)
	case "refs":
		return s.cmdRefs(args)
	case "wrap":
		return s.cmdWrap(args)
	case "release":
		return s.cmdRelease(args)
	case "caches":
		return s.cmdCaches(args)
	case "env":
		return s.cmdEnv(args)
	case "query":
		return s.cmdQuery(args)
	case "gc":
		runtime.GC()
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

const usage = `commands:
  types                       list registered types
  register NAME [PARENT]      register a derived type
  new TYPE [floating]         allocate a native object
  ref PTR / unref PTR         adjust the native reference count
  refsink PTR                 sink a floating reference
  refs PTR                    show count and floating state
  wrap PTR [owned]            wrap the pointer in a proxy
  release PTR                 retire the proxy deterministically
  caches PTR                  show weak/strong cache state
  env PTR KEY [VALUE]         read or write the proxy side table
  query PTR MODE              inspect (gtype|repo|class|env)
  gc                          force a collection cycle
  quit
`

func (s *session) cmdTypes(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: types")
	}
	for _, name := range s.types.Names() {
		t := s.types.Lookup(name)
		if parent := s.types.Parent(t); parent.IsValid() {
			fmt.Printf("%s < %s\n", name, s.types.Name(parent))
		} else {
			fmt.Println(name)
		}
	}
	return nil
}

func (s *session) cmdRegister(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: register NAME [PARENT]")
	}
	parent := s.sys.ObjectType()
	if len(args) == 2 {
		parent = s.types.Lookup(args[1])
		if !parent.IsValid() {
			return fmt.Errorf("unknown parent type %q", args[1])
		}
	}
	t, err := s.types.Register(args[0], parent)
	if err != nil {
		return err
	}
	fmt.Printf("%s = %d\n", args[0], t)
	return nil
}

func (s *session) cmdNew(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: new TYPE [floating]")
	}
	t := s.types.Lookup(args[0])
	if !t.IsValid() {
		return fmt.Errorf("unknown type %q", args[0])
	}
	floating := len(args) == 2 && args[1] == "floating"
	ptr := s.sys.New(t, floating)
	fmt.Printf("%#x\n", uintptr(ptr))
	return nil
}

func (s *session) cmdRefOp(op string, args []string) error {
	ptr, err := onePtr(args, op)
	if err != nil {
		return err
	}
	switch op {
	case "ref":
		s.sys.Ref(ptr)
	case "unref":
		s.sys.Unref(ptr)
	case "refsink":
		s.sys.RefSink(ptr)
	}
	return nil
}

func (s *session) cmdRefs(args []string) error {
	ptr, err := onePtr(args, "refs")
	if err != nil {
		return err
	}
	if !s.sys.Alive(ptr) {
		fmt.Println("dead")
		return nil
	}
	fmt.Printf("refs=%d floating=%v toggle=%v\n",
		s.sys.RefCount(ptr), s.sys.Floating(ptr), s.sys.HasToggleRef(ptr))
	return nil
}

func (s *session) cmdWrap(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: wrap PTR [owned]")
	}
	ptr, err := parsePtr(args[0])
	if err != nil {
		return err
	}
	owned := len(args) == 2 && args[1] == "owned"
	p := s.rt.Wrap(ptr, owned)
	s.proxies[ptr] = p
	fmt.Println(p)
	return nil
}

func (s *session) cmdRelease(args []string) error {
	ptr, err := onePtr(args, "release")
	if err != nil {
		return err
	}
	p, ok := s.proxies[ptr]
	if !ok {
		return fmt.Errorf("no proxy held for %#x", uintptr(ptr))
	}
	delete(s.proxies, ptr)
	s.rt.Release(p)
	return nil
}

func (s *session) cmdCaches(args []string) error {
	ptr, err := onePtr(args, "caches")
	if err != nil {
		return err
	}
	weak, strong := s.rt.Cached(ptr)
	fmt.Printf("weak=%v strong=%v\n", weak, strong)
	return nil
}

func (s *session) cmdEnv(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: env PTR KEY [VALUE]")
	}
	ptr, err := parsePtr(args[0])
	if err != nil {
		return err
	}
	p, ok := s.proxies[ptr]
	if !ok {
		return fmt.Errorf("no proxy held for %#x", uintptr(ptr))
	}
	if len(args) == 3 {
		p.Env()[args[1]] = args[2]
		return nil
	}
	fmt.Println(p.Env()[args[1]])
	return nil
}

func (s *session) cmdQuery(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: query PTR MODE")
	}
	ptr, err := parsePtr(args[0])
	if err != nil {
		return err
	}
	p, ok := s.proxies[ptr]
	if !ok {
		return fmt.Errorf("no proxy held for %#x", uintptr(ptr))
	}
	switch v := s.rt.Query(p, lgi.QueryMode(args[1])).(type) {
	case nil:
		fmt.Println("<nil>")
	case gtype.Type:
		fmt.Printf("%d (%s)\n", v, s.types.Name(v))
	case *gtype.Typetable:
		fmt.Printf("typetable %s pin=%v\n", v.Name, v.Pin)
	case *native.Class:
		fmt.Printf("class %s\n", v.Name)
	case map[string]any:
		for k, val := range v {
			fmt.Printf("%s=%v\n", k, val)
		}
	default:
		fmt.Println(v)
	}
	return nil
}

func onePtr(args []string, cmd string) (native.Ptr, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s PTR", cmd)
	}
	return parsePtr(args[0])
}

func parsePtr(s string) (native.Ptr, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad pointer %q", s)
	}
	return native.Ptr(v), nil
}
