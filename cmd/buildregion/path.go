package main

import (
	"fmt"
	"os"
	"strings"
)

// Path points the builder at its input: either a network file on disk or a
// MongoDB collection given as {db}.{col}.
type Path struct {
	File string
	DB   string
	Coll string
}

func NewPath(filePathOrColl string) (*Path, error) {
	if _, err := os.Stat(filePathOrColl); err == nil {
		return &Path{File: filePathOrColl}, nil
	}
	dbDotColl := strings.TrimSpace(filePathOrColl)
	if dbDotColl == "" {
		return nil, fmt.Errorf("empty input path")
	}
	splitted := strings.Split(dbDotColl, ".")
	if len(splitted) != 2 {
		return nil, fmt.Errorf("input is neither a file nor {db}.{col}: %s", dbDotColl)
	}
	return &Path{DB: splitted[0], Coll: splitted[1]}, nil
}

func (p *Path) IsFile() bool { return p.File != "" }

func (p *Path) String() string {
	if p.IsFile() {
		return p.File
	}
	return p.DB + "." + p.Coll
}
