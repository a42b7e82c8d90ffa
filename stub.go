package main

import "github.com/TegranGrigorian/Woodix/kernel/boot"

// main makes a dummy call to the kernel entry point. It is intentionally
// defined to prevent the Go compiler from optimizing away the real kernel code
// which is only reachable from the loader.
//
// main is never invoked inside the kernel image; the loader jumps straight to
// boot.Entry.
func main() {
	boot.Entry()
}
