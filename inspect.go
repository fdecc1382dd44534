package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
)

func newInspectCmd() *cobra.Command {
	var (
		schema     string
		showTuples bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the pages of a heap file and their slot occupancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			td, err := tuple.ParseSchema(schema)
			if err != nil {
				return err
			}

			path := primitives.Filepath(args[0])
			if !path.Exists() {
				return fmt.Errorf("%s does not exist", path)
			}

			s, err := openStore(path, td)
			if err != nil {
				return err
			}
			defer s.Close()

			tree, err := pageTree(s, showTuples)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tree.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "int", "field types, e.g. int,int,string")
	cmd.Flags().BoolVar(&showTuples, "tuples", false, "list the tuple in every used slot")
	return cmd
}

// pageTree reads every page under one read-only transaction.
func pageTree(s *store, showTuples bool) (treeprint.Tree, error) {
	size, err := s.file.Size()
	if err != nil {
		return nil, err
	}
	numPages, err := s.file.NumPages()
	if err != nil {
		return nil, err
	}

	tree := treeprint.NewWithRoot(fmt.Sprintf("%s (%s, %d pages, %d slots/page, table %d)",
		s.file.FilePath(), humanize.IBytes(uint64(size)), numPages,
		s.file.SlotsPerPage(), s.file.GetID()))

	tid := s.pool.Begin()
	defer s.pool.TransactionComplete(tid, true)

	used := 0
	for pageNo := primitives.PageNumber(0); pageNo < numPages; pageNo++ {
		p, err := s.pool.GetPage(tid, primitives.NewPageID(s.file.GetID(), pageNo), primitives.ReadOnly)
		if err != nil {
			return nil, err
		}
		hp := p.(*heap.HeapPage)

		tuples := hp.GetTuples()
		used += len(tuples)
		branch := tree.AddBranch(fmt.Sprintf("page %d: %d/%d used", pageNo, len(tuples), hp.NumSlots()))
		if !showTuples {
			continue
		}
		for _, t := range tuples {
			branch.AddNode(fmt.Sprintf("slot %d: %s", t.RecordID.Slot, t))
		}
	}

	tree.AddMetaNode("total", fmt.Sprintf("%s tuples", humanize.Comma(int64(used))))
	return tree, nil
}
