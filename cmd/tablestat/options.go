package main

// Options holds the command line. Struct tags are interpreted by
// github.com/jessevdk/go-flags. Zero values mean "not given" and leave the
// configuration file (or its defaults) in charge.
type Options struct {
	Config   string `short:"f" long:"config" description:"YAML configuration path"`
	Buckets  int    `short:"b" long:"buckets" description:"number of buckets"`
	Width    uint8  `short:"w" long:"width" choice:"32" choice:"64" description:"digest width in bits"`
	Budget   int64  `long:"budget" description:"memory budget in bytes, 0 for unlimited"`
	PoolSize int    `long:"pool" description:"tree nodes to preallocate"`
	Verbose  bool   `short:"v" long:"verbose" description:"development logger at debug level"`

	Args struct {
		Files []string `positional-arg-name:"FILE" description:"key files, one key per line (stdin when none)"`
	} `positional-args:"yes"`
}
