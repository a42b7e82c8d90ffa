package main

import (
	"bufio"
	"debug/elf"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// tablePkg and tableSymbol name the redirect table variable in the
	// kernel image, relative to the module path.
	tablePkg    = "kernel/boot"
	tableSymbol = "redirects"

	// These mirror the table layout in kernel/boot/redirect.go.
	tableMagic      = 0x454c4241545244ab
	tableCapacity   = 16
	tableEntriesOff = 16
)

var (
	scanDirs = []string{"kernel", "device"}

	errNoModule = errors.New("go.mod does not declare a module path")
)

type redirect struct {
	src string
	dst string

	srcVMA uint64
	dstVMA uint64
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[redirects] error: %s\n", err.Error())
	os.Exit(1)
}

// modulePath reads the module path from the go.mod file in root.
func modulePath(root string) (string, error) {
	f, err := os.Open(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if fields := strings.Fields(scanner.Text()); len(fields) == 2 && fields[0] == "module" {
			return fields[1], nil
		}
	}

	if err = scanner.Err(); err != nil {
		return "", err
	}
	return "", errNoModule
}

func collectGoFiles(root string) ([]string, error) {
	var goFiles []string
	for _, dir := range scanDirs {
		err := filepath.Walk(filepath.Join(root, dir), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if !info.IsDir() && filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go") {
				goFiles = append(goFiles, path)
			}

			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return goFiles, nil
}

// findRedirects parses goFiles and returns one redirect per
// "//go:redirect-from <symbol>" line found in function doc comments.
func findRedirects(root, module string, goFiles []string) ([]*redirect, error) {
	var redirects []*redirect

	for _, goFile := range goFiles {
		fset := token.NewFileSet()

		f, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("%s: %s", goFile, err)
		}

		pkgDir, err := filepath.Rel(root, filepath.Dir(goFile))
		if err != nil {
			return nil, err
		}

		for _, decl := range f.Decls {
			fnDecl, ok := decl.(*ast.FuncDecl)
			if !ok || fnDecl.Doc == nil || fnDecl.Recv != nil {
				continue
			}

			fqName := fmt.Sprintf("%s/%s.%s", module, filepath.ToSlash(pkgDir), fnDecl.Name.Name)
			for _, comment := range fnDecl.Doc.List {
				if !strings.Contains(comment.Text, "go:redirect-from") {
					continue
				}

				fields := strings.Fields(comment.Text)
				if len(fields) != 2 || fields[0] != "//go:redirect-from" {
					return nil, fmt.Errorf("malformed go:redirect-from syntax for %q", fqName)
				}

				redirects = append(redirects, &redirect{
					src: fields[1],
					dst: fqName,
				})
			}
		}
	}

	return redirects, nil
}

// elfRedirectTableOffset returns the file offset of the redirect table
// variable inside imgFile.
func elfRedirectTableOffset(imgFile, module string) (int64, error) {
	f, err := elf.Open(imgFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	symbols, err := f.Symbols()
	if err != nil {
		return 0, err
	}

	name := module + "/" + tablePkg + "." + tableSymbol
	for _, sym := range symbols {
		if sym.Name != name {
			continue
		}

		if int(sym.Section) >= len(f.Sections) {
			break
		}

		section := f.Sections[sym.Section]
		if section.Type == elf.SHT_NOBITS {
			return 0, fmt.Errorf("%s: %q is not backed by file data", imgFile, name)
		}
		return int64(section.Offset + sym.Value - section.Addr), nil
	}

	return 0, fmt.Errorf("%s: missing %q symbol", imgFile, name)
}

// writeRedirectTable fills in the count and the entries of the redirect table
// located at offset. The table magic is checked first.
func writeRedirectTable(f io.ReaderAt, w io.WriterAt, offset int64, redirects []*redirect) error {
	if len(redirects) > tableCapacity {
		return fmt.Errorf("%d redirects exceed the table capacity of %d", len(redirects), tableCapacity)
	}

	var magic [8]byte
	if _, err := f.ReadAt(magic[:], offset); err != nil {
		return err
	}
	if binary.LittleEndian.Uint64(magic[:]) != tableMagic {
		return errors.New("redirect table magic mismatch")
	}

	buf := make([]byte, 8+16*len(redirects))
	binary.LittleEndian.PutUint64(buf, uint64(len(redirects)))
	for i, redirect := range redirects {
		binary.LittleEndian.PutUint64(buf[8+16*i:], redirect.srcVMA)
		binary.LittleEndian.PutUint64(buf[16+16*i:], redirect.dstVMA)
	}

	_, err := w.WriteAt(buf, offset+8)
	return err
}

func elfResolveRedirectSymbols(redirects []*redirect, imgFile string) error {
	f, err := elf.Open(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	symbols, err := f.Symbols()
	if err != nil {
		return err
	}

	for _, redirect := range redirects {
		for _, symbol := range symbols {
			if symbol.Name == redirect.src {
				redirect.srcVMA = symbol.Value
			}
			if symbol.Name == redirect.dst {
				redirect.dstVMA = symbol.Value
			}
		}

		switch {
		case redirect.srcVMA == 0:
			return fmt.Errorf("%s: could not locate address of %q", imgFile, redirect.src)
		case redirect.dstVMA == 0:
			return fmt.Errorf("%s: could not locate address of %q", imgFile, redirect.dst)
		}
	}

	return nil
}

func populateTable(redirects []*redirect, module, imgFile string) error {
	if err := elfResolveRedirectSymbols(redirects, imgFile); err != nil {
		return err
	}

	offset, err := elfRedirectTableOffset(imgFile, module)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(imgFile, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	return writeRedirectTable(f, f, offset, redirects)
}

func main() {
	root := flag.String("root", ".", "the module root folder")
	flag.Parse()

	if len(flag.Args()) == 0 {
		exit(errors.New("missing command"))
	}

	cmd := flag.Arg(0)
	var imgFile string
	switch cmd {
	case "count", "list":
	case "populate-table":
		if len(flag.Args()) != 2 {
			exit(errors.New("populate-table requires the path to the kernel image as an argument"))
		}
		imgFile = flag.Arg(1)
	default:
		exit(fmt.Errorf("unknown command %q", cmd))
	}

	module, err := modulePath(*root)
	if err != nil {
		exit(err)
	}

	goFiles, err := collectGoFiles(*root)
	if err != nil {
		exit(err)
	}

	redirects, err := findRedirects(*root, module, goFiles)
	if err != nil {
		exit(err)
	}

	switch cmd {
	case "count":
		fmt.Printf("%d", len(redirects))
	case "list":
		for _, redirect := range redirects {
			fmt.Printf("%s -> %s\n", redirect.src, redirect.dst)
		}
	default:
		if err = populateTable(redirects, module, imgFile); err != nil {
			exit(err)
		}
	}
}
