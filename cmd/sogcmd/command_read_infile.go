package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sogmodel/sogcmd/internal/infile"
	"github.com/sogmodel/sogcmd/internal/model"
	"github.com/sogmodel/sogcmd/internal/schema"
)

var readInfileCmd = &cobra.Command{
	Use:   "read_infile INFILE KEY",
	Short: "Print a parameter value from an infile",
	Long: "Print the value at dotted KEY (e.g. grid.model_depth) from a YAML\n" +
		"infile. Legacy flat infiles (any extension other than .yaml/.yml)\n" +
		"are read through the flat-file codec first.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return readInfileValue(args[0], args[1])
	},
}

func registerReadInfileCommand(root *cobra.Command) {
	root.AddCommand(readInfileCmd)
}

func readInfileValue(path, key string) error {
	s, err := schema.Default()
	if err != nil {
		return err
	}

	doc, err := loadAnyInfile(s, path)
	if err != nil {
		return err
	}

	q, err := s.ReadValue(doc, key)
	if err != nil {
		return err
	}
	f, ok := s.FieldByPath(key)
	if !ok {
		return fmt.Errorf("unknown parameter path: %s", key)
	}
	text, err := schema.FormatValue(f, q.Value)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func loadAnyInfile(s *schema.Schema, path string) (*model.Document, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return s.Load(path)
	default:
		entries, err := infile.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return s.FromFlat(entries)
	}
}
