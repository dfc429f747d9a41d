package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	wbfs "github.com/illya-lockhart/wbfs-helper"
	"github.com/illya-lockhart/wbfs-helper/key"
	"github.com/illya-lockhart/wbfs-helper/titlekey"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var fs = afero.NewOsFs()

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func openContainer(name string) (*wbfs.Container, wbfs.ReadCloser, error) {
	rc, err := wbfs.OpenFile(name)
	if err != nil {
		return nil, nil, err
	}

	c, err := wbfs.Open(rc)
	if err != nil {
		return nil, nil, multierror.Append(err, rc.Close())
	}

	return c, rc, nil
}

func infoCommand(name string) error {
	c, rc, err := openContainer(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	fmt.Printf("host sector size:    %d\n", c.HdSectorSize())
	fmt.Printf("wbfs sector size:    %d\n", c.WbfsSectorSize())
	fmt.Printf("wbfs sectors/disc:   %d\n", c.WbfsSectorsPerDisc())
	fmt.Printf("max discs:           %d\n", c.MaxDiscs())
	fmt.Printf("occupied discs:      %d\n", len(c.OccupiedSlots()))

	return nil
}

func listCommand(name string) error {
	c, rc, err := openContainer(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	for _, slot := range c.OccupiedSlots() {
		fmt.Println(slot)
	}

	return nil
}

func partitionsCommand(name string, slot int) error {
	c, rc, err := openContainer(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	d, err := wbfs.OpenDisc(c, slot)
	if err != nil {
		return err
	}

	groups, err := wbfs.ReadPartitionInfo(d)
	if err != nil {
		return err
	}

	for i, g := range groups {
		if g.Count == 0 {
			continue
		}

		entries, err := wbfs.ReadPartitionTable(d, g)
		if err != nil {
			return err
		}

		for j, e := range entries {
			fmt.Printf("group %d entry %d: offset=0x%x type=%d\n", i, j, e.Offset, e.Type)
		}
	}

	return nil
}

// verifyCommand walks every occupied disc's full indirection table reading
// each WBFS sector once, the same full-image scan the teacher's compress
// command performs with io.Copy, but here just exercising ReadAt against
// every logical sector to surface damaged images early. Holes are
// zero-filled rather than treated as failures, since an unused disc region
// legitimately has no physical backing.
func verifyCommand(name string) error {
	c, rc, err := openContainer(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	slots := c.OccupiedSlots()

	var result error
	for _, slot := range slots {
		d, err := wbfs.OpenDisc(c, slot, wbfs.WithZeroFillHoles())
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("slot %d: %w", slot, err))
			continue
		}

		sectors := c.WbfsSectorsPerDisc()
		bar := progressbar.Default(sectors, fmt.Sprintf("verifying slot %d", slot))

		buf := make([]byte, c.WbfsSectorSize())
		for s := int64(0); s < sectors; s++ {
			if err := d.ReadAt(s*c.WbfsSectorSize(), buf); err != nil {
				result = multierror.Append(result, fmt.Errorf("slot %d sector %d: %w", slot, s, err))
				break
			}
			_ = bar.Add(1)
		}
	}

	return result
}

func titlekeyCommand(name string, slot int, partitionOffset int64, commonKeyFile string) error {
	c, rc, err := openContainer(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	d, err := wbfs.OpenDisc(c, slot)
	if err != nil {
		return err
	}

	commonKey, err := afero.ReadFile(fs, commonKeyFile)
	if err != nil {
		return err
	}

	if err := key.SetCommonKey(commonKey); err != nil {
		return err
	}

	tk, err := titlekey.Decrypt(d, wbfs.ByteOffset(partitionOffset), commonKey)
	if err != nil {
		return err
	}

	_, err = io.WriteString(os.Stdout, fmt.Sprintf("%x\n", tk))
	return err
}

func main() {
	app := cli.NewApp()

	app.Name = "wbfsutil"
	app.Usage = "WBFS container inspection utility"
	app.Version = fmt.Sprintf("%s, commit %s, built at %s", version, commit, date)

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Print container geometry",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}
				return infoCommand(c.Args().First())
			},
		},
		{
			Name:      "list",
			Usage:     "List occupied disc slots",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}
				return listCommand(c.Args().First())
			},
		},
		{
			Name:      "partitions",
			Usage:     "Dump a disc's partition tables",
			ArgsUsage: "FILE SLOT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}
				slot := c.Args().Get(1)
				var n int
				if _, err := fmt.Sscanf(slot, "%d", &n); err != nil {
					return err
				}
				return partitionsCommand(c.Args().First(), n)
			},
		},
		{
			Name:      "verify",
			Usage:     "Read every occupied disc's sectors to surface damage",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}
				return verifyCommand(c.Args().First())
			},
		},
		{
			Name:      "titlekey",
			Usage:     "Decrypt a partition's title key",
			ArgsUsage: "FILE SLOT PARTITION_OFFSET [COMMON_KEY_FILE]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				var slot int
				if _, err := fmt.Sscanf(c.Args().Get(1), "%d", &slot); err != nil {
					return err
				}

				var offset int64
				if _, err := fmt.Sscanf(c.Args().Get(2), "%v", &offset); err != nil {
					return err
				}

				commonKeyFile := c.Args().Get(3)
				if commonKeyFile == "" {
					commonKeyFile = key.CommonKeyFile
				}

				return titlekeyCommand(c.Args().First(), slot, offset, commonKeyFile)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
