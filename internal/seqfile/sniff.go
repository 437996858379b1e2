// Package seqfile peeks at sequence inputs to tell FASTA from FASTQ before
// they are handed to the sketcher.
package seqfile

import (
	"bufio"
	"errors"
	"io"
)

type Format int

const (
	Unknown Format = iota
	FASTA
	FASTQ
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "FASTA"
	case FASTQ:
		return "FASTQ"
	}
	return "unknown"
}

// Sniff reports the format of path from its first non-blank byte.
// Empty files are Unknown.
func Sniff(path string) (Format, error) {
	rc, err := Open(path)
	if err != nil {
		return Unknown, err
	}
	defer rc.Close()
	return SniffReader(rc)
}

func SniffReader(r io.Reader) (Format, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return Unknown, nil
		}
		if err != nil {
			return Unknown, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '>':
			return FASTA, nil
		case '@':
			return FASTQ, nil
		default:
			return Unknown, nil
		}
	}
}
