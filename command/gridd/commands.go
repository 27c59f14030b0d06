// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/bitmark-inc/gridd/discovery"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/zmqtransport"
)

const (
	publicKeyFilename  = "gridd.public"
	privateKeyFilename = "gridd.private"
)

// setup command handler
//
// commands that run to create key files these commands cannot access
// any cache or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-identity", "id":
		publicFile := getFilenameWithDirectory(arguments, publicKeyFilename)
		privateFile := getFilenameWithDirectory(arguments, privateKeyFilename)
		err := zmqtransport.MakeKeyPair(publicFile, privateFile)
		if nil != err {
			fmt.Printf("generate private key: %q and public key: %q error: %s\n", privateFile, publicFile, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated private key: %q and public key: %q\n", privateFile, publicFile)

	case "dns-txt", "txt":
		return false // defer processing until configuration is read

	case "config-test", "cfg":
		return false

	case "start", "run":
		return false // continue processing

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-identity [DIR]         (id)     - create private key in: %q\n", "DIR/"+privateKeyFilename)
		fmt.Printf("                                        and the public key in: %q\n", "DIR/"+publicKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  dns-txt                    (txt)    - display the data to put in a DNS TXT record\n")
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "dns-txt", "txt":
		record, err := dnsTXT(options)
		if nil != err {
			exitwithstatus.Message("error: %s", err)
		}
		fmt.Printf("TXT \"%s\"\n", record)

	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		_ = json.Indent(&out, b, "", "  ")
		_, _ = out.WriteTo(os.Stdout)
		_, _ = os.Stdout.WriteString("\n")

	default: // unknown commands fall through to normal start
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// the record announcing this member
//
//	gridd=v1 a=<IPv4;IPv6> c=<listener port> s=<publisher port> p=<public key hex>
func dnsTXT(options *Configuration) (string, error) {
	network := options.Network

	data, err := ioutil.ReadFile(network.PublicKey)
	if nil != err {
		return "", err
	}
	publicKey, err := zmqtransport.ReadPublicKey(string(data))
	if nil != err {
		return "", err
	}

	host, connectPort, err := splitHostPort(network.Announce)
	if nil != err {
		return "", fmt.Errorf("announce: %q  error: %w", network.Announce, err)
	}
	broadcastHost, broadcastPort, err := splitHostPort(network.Broadcast)
	if nil != err {
		return "", fmt.Errorf("broadcast: %q  error: %w", network.Broadcast, err)
	}
	if host != broadcastHost {
		return "", fmt.Errorf("announce: %q and broadcast: %q must share the IP", network.Announce, network.Broadcast)
	}

	IP := net.ParseIP(host)
	if nil == IP {
		return "", fmt.Errorf("announce: %q  error: %w", network.Announce, fault.ErrInvalidIPAddress)
	}

	record := &discovery.Record{
		ConnectPort:   uint16(connectPort),
		BroadcastPort: uint16(broadcastPort),
		PublicKey:     publicKey,
	}
	if nil != IP.To4() {
		record.IPv4 = IP
	} else {
		record.IPv6 = IP
	}
	return record.String(), nil
}

func splitHostPort(hostPort string) (string, int, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return "", 0, err
	}
	n, err := strconv.Atoi(port)
	if nil != err {
		return "", 0, err
	}
	return host, n, nil
}

// get a file name with optional directory prefix from the first
// argument
func getFilenameWithDirectory(arguments []string, name string) string {
	directory := "."
	if len(arguments) > 0 {
		directory = arguments[0]
	}
	return filepath.Join(directory, name)
}
