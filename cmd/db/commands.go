package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ValentinKolb/oKV/lib/ordered"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseValue(args[1], formatFlag(cmd))
			if err != nil {
				return err
			}
			if err = openDB(); err != nil {
				return err
			}
			if err = orderedDB.Put([]byte(args[0]), value); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key...]",
		Short: "Reads the values of one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openDB(); err != nil {
				return err
			}
			values, errs, err := orderedDB.MultiGet(toKeys(args))
			if err != nil {
				return err
			}
			for i, key := range args {
				if errs[i] != nil {
					fmt.Printf("key=%s, found=false\n", key)
					continue
				}
				fmt.Printf("key=%s, found=true, kind=%s, value=%s\n", key, values[i].Kind(), formatValue(values[i]))
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key...]",
		Short: "Deletes one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openDB(); err != nil {
				return err
			}
			if err := orderedDB.MultiRemove(toKeys(args)); err != nil {
				return err
			}
			fmt.Printf("deleted %d key(s)\n", len(args))
			return nil
		},
	}
	rangeCmd = &cobra.Command{
		Use:   "range",
		Short: "Lists entries in key order",
		Long: `Lists entries in key order. gt/gte/lt/lte bound the range, start/end are
aliases for gte/lte that swap with --reverse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := iteratorOptions(cmd)
			if err != nil {
				return err
			}
			if err = openDB(); err != nil {
				return err
			}

			it := orderedDB.Iterator(opts)
			defer it.Close()

			n := 0
			for it.Next() {
				if opts.KeysOnly {
					fmt.Println(string(it.Key()))
				} else {
					fmt.Printf("%s\t%s\n", it.Key(), formatValue(it.Value()))
				}
				n++
			}
			if err = it.Err(); err != nil {
				return err
			}
			fmt.Printf("(%d entries)\n", n)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := openDB(); err != nil {
				return err
			}
			keys, err := orderedDB.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(string(key))
			}
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count",
		Short: "Prints the number of keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := openDB(); err != nil {
				return err
			}
			n, err := orderedDB.Length()
			if err != nil {
				return err
			}
			fmt.Println(humanize.Comma(int64(n)))
			return nil
		},
	}
	batchCmd = &cobra.Command{
		Use:   "batch [op...]",
		Short: "Applies put:KEY=VALUE and del:KEY operations together",
		Long: `Applies all operations together. The whole batch is validated before
anything is written, a delete wins over every put of the same key.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := formatFlag(cmd)
			ops := make([]ordered.Operation, len(args))
			for i, raw := range args {
				op, err := parseOp(raw, format)
				if err != nil {
					return err
				}
				ops[i] = op
			}
			if err := openDB(); err != nil {
				return err
			}
			if err := orderedDB.Batch(ops); err != nil {
				return err
			}
			fmt.Printf("applied %d operation(s)\n", len(ops))
			return nil
		},
	}
	destroyCmd = &cobra.Command{
		Use:   "destroy",
		Short: "Deletes every key of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ordered.Destroy(orderedDB.Location(), rpcStore); err != nil {
				return err
			}
			fmt.Printf("destroyed %q\n", orderedDB.Location())
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints statistics of the shard database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := rpcStore.GetDBInfo()
			if err != nil {
				return err
			}
			fmt.Printf("Engine:     %s\n", info.DbType)
			fmt.Printf("Keys:       %s\n", humanize.Comma(int64(info.KeyCount)))
			fmt.Printf("Size:       %s\n", humanize.Bytes(uint64(info.SizeBytes)))
			features := make([]string, len(info.SupportedFeatures))
			for i, f := range info.SupportedFeatures {
				features[i] = f.String()
			}
			fmt.Printf("Features:   %s\n", strings.Join(features, ", "))
			if info.Metadata != nil {
				meta, err := json.MarshalIndent(info.Metadata, "", "  ")
				if err == nil {
					fmt.Printf("Metadata:\n%s\n", meta)
				}
			}
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{putCmd, batchCmd} {
		cmd.Flags().String("format", formatText, "value format (text, hex, json)")
	}

	flags := rangeCmd.Flags()
	flags.String("gt", "", "only keys greater than this")
	flags.String("gte", "", "only keys greater than or equal to this")
	flags.String("lt", "", "only keys less than this")
	flags.String("lte", "", "only keys less than or equal to this")
	flags.String("start", "", "first key of the range (last with --reverse)")
	flags.String("end", "", "last key of the range (first with --reverse)")
	flags.Bool("exclusive-start", false, "skip the start key itself")
	flags.Bool("reverse", false, "iterate in descending key order")
	flags.Int("limit", 0, "maximum number of entries, 0 means unlimited")
	flags.Bool("keys-only", false, "print keys without loading values")
}

func formatFlag(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("format")
	return format
}

func toKeys(args []string) [][]byte {
	keys := make([][]byte, len(args))
	for i, arg := range args {
		keys[i] = []byte(arg)
	}
	return keys
}

// iteratorOptions builds the range options, bounds that were not given stay nil
func iteratorOptions(cmd *cobra.Command) (ordered.IteratorOptions, error) {
	flags := cmd.Flags()
	bound := func(name string) []byte {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return []byte(v)
	}

	var opts ordered.IteratorOptions
	opts.Gt, opts.Gte = bound("gt"), bound("gte")
	opts.Lt, opts.Lte = bound("lt"), bound("lte")
	opts.Start, opts.End = bound("start"), bound("end")

	var err error
	if opts.ExclusiveStart, err = flags.GetBool("exclusive-start"); err != nil {
		return opts, err
	}
	if opts.Reverse, err = flags.GetBool("reverse"); err != nil {
		return opts, err
	}
	if opts.KeysOnly, err = flags.GetBool("keys-only"); err != nil {
		return opts, err
	}
	if opts.Limit, err = flags.GetInt("limit"); err != nil {
		return opts, err
	}
	return opts, nil
}
