package main

import (
	"fmt"
	"os"

	"go-midiconv/debug"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "encode":
		err = encodeCmd(args)
	case "decode":
		err = decodeCmd(args)
	case "info":
		err = infoCmd(args)
	case "view":
		err = viewCmd(args)
	case "render":
		err = renderCmd(args)
	case "config":
		err = configCmd(args)
	case "help", "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	debug.Disable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("midiconv - convert between musical event trees and MIDI files")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  encode  song.json -> .mid")
	fmt.Println("  decode  .mid -> song.json")
	fmt.Println("  info    summarize a .mid or song.json")
	fmt.Println("  view    piano roll of a .mid or song.json")
	fmt.Println("  render  synthesize a .mid or song.json to .wav with a SoundFont")
	fmt.Println("  config  show or initialize the config file")
	fmt.Println("")
	fmt.Println("Run 'midiconv <command> -h' for flags.")
}
