// Command cachesim replays memory access traces through simulated caches.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
