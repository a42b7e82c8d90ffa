package main

import (
	"debug/elf"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/TegranGrigorian/Woodix/kernel/hal/multiboot"
)

const headerSymbol = "github.com/TegranGrigorian/Woodix/kernel/hal/multiboot.Header"

var errNoImage = errors.New("missing -image argument")

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[mbcheck] error: %s\n", err.Error())
	os.Exit(1)
}

// headerSymbolOffset returns the file offset of the Header variable if
// imgFile is an ELF image that defines it.
func headerSymbolOffset(imgFile string) (uint64, bool) {
	f, err := elf.Open(imgFile)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	symbols, err := f.Symbols()
	if err != nil {
		return 0, false
	}

	for _, sym := range symbols {
		if sym.Name != headerSymbol || int(sym.Section) >= len(f.Sections) {
			continue
		}

		section := f.Sections[sym.Section]
		if section.Type == elf.SHT_NOBITS {
			return 0, false
		}
		return section.Offset + (sym.Value - section.Addr), true
	}

	return 0, false
}

func checkImage(w io.Writer, imgFile string) error {
	image, err := os.ReadFile(imgFile)
	if err != nil {
		return err
	}

	if symOffset, ok := headerSymbolOffset(imgFile); ok {
		fmt.Fprintf(w, "symbol multiboot.Header at file offset 0x%x\n", symOffset)
	}

	offset, kerr := multiboot.FindHeader(image)
	if kerr != nil {
		return kerr
	}

	info, kerr := multiboot.ParseHeader(image[offset:])
	if kerr != nil {
		return kerr
	}

	fmt.Fprintf(w, "boot header at file offset 0x%x\n", offset)
	fmt.Fprintf(w, "  magic    0x%08x\n", info.Magic)
	fmt.Fprintf(w, "  arch     %d\n", info.Arch)
	fmt.Fprintf(w, "  length   %d\n", info.Length)
	fmt.Fprintf(w, "  checksum 0x%08x\n", info.Checksum)

	return visitTags(w, image[offset:])
}

func visitTags(w io.Writer, data []byte) error {
	var visitErr error
	kerr := multiboot.VisitHeaderTags(data, func(tag *multiboot.HeaderTag) bool {
		kind := "required"
		if tag.Optional() {
			kind = "optional"
		}

		if _, err := fmt.Fprintf(w, "  tag %-22s type %2d, size %3d, %s\n", tag.Type, tag.Type, tag.Size, kind); err != nil {
			visitErr = err
			return false
		}
		return true
	})

	if kerr != nil {
		return kerr
	}

	return visitErr
}

func main() {
	imgFile := flag.String("image", "", "the kernel image to check")
	flag.Parse()

	if *imgFile == "" {
		flag.Usage()
		exit(errNoImage)
	}

	if err := checkImage(os.Stdout, *imgFile); err != nil {
		exit(err)
	}
}
