package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"
	"github.com/spf13/cobra"

	"spibus/core"
)

var (
	decodeClk   string
	decodeCS    string
	decodeMOSI  string
	decodeWidth int

	decodeCmd = &cobra.Command{
		Use:   "decode",
		Short: "Decode Saleae digital captures into bus values",
		Long: "Reads binary Saleae digital exports of the clock, select and data-out lines,\n" +
			"splits them into select-framed transactions and reassembles each one into\n" +
			"8, 16 or 32-bit values using the same byte order as the bus transfers.",
		Args: cobra.NoArgs,
		RunE: runDecode,
	}
)

func init() {
	f := decodeCmd.Flags()
	f.StringVar(&decodeClk, "clk", "digital_2.bin", "Capture of the clock line")
	f.StringVar(&decodeCS, "cs", "digital_0.bin", "Capture of the select line")
	f.StringVar(&decodeMOSI, "mosi", "digital_1.bin", "Capture of the data out line")
	f.IntVarP(&decodeWidth, "width", "w", 8, "Value width in bits: 8, 16 or 32")
}

func runDecode(cmd *cobra.Command, args []string) error {
	clk, err := openDigital(decodeClk)
	if err != nil {
		return err
	}
	cs, err := openDigital(decodeCS)
	if err != nil {
		return err
	}
	mosi, err := openDigital(decodeMOSI)
	if err != nil {
		return err
	}

	spi := analyzers.SPI{}
	txs, _ := spi.Scan(clk, cs, mosi, mosi)
	slog.Debug("scanned capture", "transactions", len(txs))

	for i, tx := range txs {
		values, rest, err := decodeStream(tx.SDO, decodeWidth)
		if err != nil {
			return err
		}
		if err := printTransaction(cmd.OutOrStdout(), i, tx.StartTime(), decodeWidth, values, rest); err != nil {
			return err
		}
	}
	return nil
}

func openDigital(filename string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	df, err := saleae.ReadDigitalFile(fp)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return df, nil
}

// decodeStream groups bytes in wire order into values of width bits.
// Bytes that do not fill a whole value are returned as rest.
func decodeStream(data []byte, width int) (values []uint32, rest []byte, err error) {
	switch width {
	case 8:
		for _, b := range data {
			values = append(values, uint32(b))
		}
		return values, nil, nil
	case 16:
		for len(data) >= 2 {
			values = append(values, uint32(core.DecodeWord([2]byte{data[0], data[1]})))
			data = data[2:]
		}
	case 32:
		for len(data) >= 4 {
			values = append(values, core.DecodeDWord([4]byte{data[0], data[1], data[2], data[3]}))
			data = data[4:]
		}
	default:
		return nil, nil, errors.New("width must be 8, 16 or 32")
	}
	return values, data, nil
}

func printTransaction(w io.Writer, num int, start float64, width int, values []uint32, rest []byte) error {
	if _, err := fmt.Fprintf(w, "tx %d t=%f", num, start); err != nil {
		return err
	}
	for _, v := range values {
		fmt.Fprintf(w, " 0x%0*x", width/4, v)
	}
	if len(rest) > 0 {
		fmt.Fprintf(w, " rest=%#x", rest)
	}
	_, err := fmt.Fprintln(w)
	return err
}
