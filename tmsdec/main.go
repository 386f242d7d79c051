// tmsdec decodes TMS5220/TMS5100 LPC speech data into raw 16-bit
// little-endian PCM at 8 kHz. Input may be raw bytes or the hex text
// tmsenc emits; the format is sniffed unless forced with -hex/-bin.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	talkie "github.com/atomic14/ch32v003-audio-sub001"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] input output.raw\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	var (
		device   = flag.String("device", "tms5220", "source chip: tms5220 or tms5100")
		forceHex = flag.Bool("hex", false, "treat input as hex text")
		forceBin = flag.Bool("bin", false, "treat input as raw bytes")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 2 {
		usage()
	}

	var dev talkie.Device
	switch *device {
	case "tms5220":
		dev = talkie.TMS5220
	case "tms5100":
		dev = talkie.TMS5100
	default:
		log.Fatalf("unknown device %q", *device)
	}

	var input []byte
	var err error
	if flag.Arg(0) == "-" {
		input, err = io.ReadAll(os.Stdin)
	} else {
		input, err = os.ReadFile(flag.Arg(0))
	}
	if err != nil {
		log.WithError(err).Fatal("reading input")
	}

	data := input
	if *forceHex || (!*forceBin && looksLikeHexText(input)) {
		data, err = talkie.ParseHex(string(input))
		if err != nil {
			log.WithError(err).Fatal("parsing hex input")
		}
	}

	syn := talkie.NewSynthesizer(data, dev)
	pcm := syn.Decode()
	log.WithFields(logrus.Fields{
		"bytes":   len(data),
		"samples": len(pcm),
		"seconds": float64(len(pcm)) / talkie.SampleRate,
		"device":  dev.String(),
	}).Info("decoded")

	var out io.Writer = os.Stdout
	if flag.Arg(1) != "-" {
		f, err := os.Create(flag.Arg(1))
		if err != nil {
			log.WithError(err).Fatal("creating output")
		}
		defer f.Close()
		out = f
	}

	buf := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := out.Write(buf); err != nil {
		log.WithError(err).Fatal("writing output")
	}
}

// looksLikeHexText reports whether the input is printable text rather
// than a raw byte stream.
func looksLikeHexText(data []byte) bool {
	for _, b := range data {
		switch {
		case b >= '0' && b <= '9', b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		case b == 'x' || b == 'X' || b == ',' || b == '{' || b == '}' || b == ';':
		case b == ' ' || b == '\n' || b == '\r' || b == '\t':
		default:
			return false
		}
	}
	return len(data) > 0
}
