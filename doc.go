// Package hvsp drives the AVR High-Voltage Serial Programming protocol over
// plain GPIO lines to recover ATtiny parts whose fuses disabled the
// low-voltage programming interface.
//
// A Programmer owns six pins (see Pins). Run performs one complete session:
// power up, identify, read, act, verify, power down.
//
// # References:
//
// Microchip (Atmel) datasheets
//   - [ATtiny13A]: 8-bit AVR Microcontroller with 1K Bytes In-System Programmable Flash (https://ww1.microchip.com/downloads/en/DeviceDoc/doc8126.pdf)
//   - [ATtiny25]: ATtiny25/45/85 Datasheet (https://ww1.microchip.com/downloads/en/DeviceDoc/Atmel-2586-AVR-8-bit-Microcontroller-ATtiny25-ATtiny45-ATtiny85_Datasheet.pdf)
//   - [ATtiny24]: ATtiny24A/44A/84A Datasheet (https://ww1.microchip.com/downloads/en/DeviceDoc/ATtiny24A-44A-84A-DataSheet-DS40002269A.pdf)
//
// Sections cited as [ATtiny25|20.7 High-voltage Serial Programming] refer to
// the ATtiny25 datasheet; the other parts share the same HVSP instruction set.
package hvsp
