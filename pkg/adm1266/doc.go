// Package adm1266 exposes the sequencer pins of an Analog Devices ADM1266
// as digital lines.
//
// # Overview
//
// The ADM1266 has nine general-purpose pins (GPIO1..GPIO9) and sixteen
// programmable digital I/O pins (PDIO1..PDIO16). Their state is not held in
// discrete pin registers. Each family is reported as a 16-bit status word
// returned by a PMBus block read, and the GPIO bits follow the silicon
// routing rather than the pin numbering. This package folds both families
// into one flat line space:
//
//	offset  0..8   GPIO1..GPIO9   (GPIO_STATUS, permuted bits)
//	offset  9..24  PDIO1..PDIO16  (PDIO_STATUS, bit = offset-9)
//
// # Usage
//
//	client := pmbus.NewClient(bus, 0x40)
//	chip := adm1266.New(client)
//
//	high, err := chip.Get(2)                    // GPIO3
//	bits, err := chip.GetMultiple(adm1266.AllLines)
//	err = chip.WriteDump(os.Stdout)             // "GPIO3 ( input push-pull )"
//
// Every state query reads the status words fresh from the device and a
// batched query costs at most one block read per family touched. A Chip
// holds no mutable state of its own; concurrent use is safe as long as the
// block transfer serializes transactions, which pmbus.Client does.
package adm1266
