// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/patrickbr/gtfsparser"
	"github.com/patrickbr/gtfswriter"
	"github.com/patrickbr/ptmapper/mapper"
	"github.com/patrickbr/ptmapper/network"
	"github.com/patrickbr/ptmapper/schedule"
	"github.com/patrickbr/ptmapper/tools"
	flag "github.com/spf13/pflag"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ptmapper - (C) 2016-2023 by Patrick Brosi <info@patrickbrosi.de>\n\nMaps a transit schedule onto a multimodal network.\n\nUsage:\n\n  %s [<options>] -c <config.yml> [<input GTFS>]\n\nAllowed options:\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	configPath := flag.StringP("config", "c", "", "mapper config file (YAML)")
	writeDefaultConfig := flag.StringP("write-default-config", "", "", "write a default config file to the given path and exit")

	networkPath := flag.StringP("network", "n", "", "input MATSim network file")
	osmPath := flag.StringP("osm", "", "", "input OSM pbf file, converted to a multimodal network")
	schedulePath := flag.StringP("schedule", "s", "", "input unmapped MATSim transit schedule (alternative to a GTFS feed)")
	gtfsDay := flag.StringP("gtfs-day", "", schedule.DayWithMostTrips, "service day to convert, as YYYYMMDD, 'dayWithMostTrips', 'dayWithMostServices' or 'all'")
	gtfsOut := flag.StringP("gtfs-out", "", "", "write the parsed GTFS feed back to this directory or zip file")

	outputSchedule := flag.StringP("output-schedule", "o", "scheduleMapped.xml", "output transit schedule file")
	outputNetwork := flag.StringP("output-network", "O", "networkMapped.xml", "output network file")
	streetNetwork := flag.StringP("street-network", "", "", "write a street-only network subset to this file")
	streetModesStr := flag.StringP("street-modes", "", "car", "comma-separated modes kept in the street network subset")
	geojsonDir := flag.StringP("geojson-dir", "", "", "write network.geojson and routes.geojson to this directory")
	help := flag.BoolP("help", "?", false, "this message")

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "Error:", r)
			os.Exit(1)
		}
	}()

	if len(*writeDefaultConfig) > 0 {
		if err := mapper.WriteDefaultConfig(*writeDefaultConfig); err != nil {
			panic(err)
		}
		fmt.Fprintf(os.Stdout, "Default config written to '%s'.\n", *writeDefaultConfig)
		return
	}

	if len(*configPath) == 0 {
		fmt.Fprintln(os.Stderr, "No config specified, see --help")
		os.Exit(1)
	}

	cfg, err := mapper.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// network input
	var net *network.Network
	if len(*osmPath) > 0 {
		oc := network.OsmConverter{}
		net, err = oc.Convert(*osmPath)
		if err != nil {
			panic(err)
		}
	} else if len(*networkPath) > 0 {
		fmt.Fprintf(os.Stdout, "Parsing network in '%s' ...", *networkPath)
		net, err = network.ReadXMLFile(*networkPath)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(os.Stdout, " done.\n")
	} else {
		fmt.Fprintln(os.Stderr, "No network input specified (--network or --osm), see --help")
		os.Exit(1)
	}

	// schedule input
	var sched *schedule.Schedule
	gtfsPaths := flag.Args()
	if len(gtfsPaths) > 0 {
		feed := gtfsparser.NewFeed()
		opts := gtfsparser.ParseOptions{UseDefValueOnError: false, DropErroneous: false, DryRun: false, CheckNullCoordinates: false, EmptyStringRepl: "", ZipFix: false}
		feed.SetParseOpts(opts)

		fmt.Fprintf(os.Stdout, "Parsing GTFS feed in '%s' ...", gtfsPaths[0])
		if err := feed.Parse(gtfsPaths[0]); err != nil {
			fmt.Fprintf(os.Stderr, "\nError while parsing GTFS feed:\n")
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, " done.\n")

		fmt.Fprintf(os.Stdout, "Converting GTFS feed (day: %s) ...", *gtfsDay)
		conv := schedule.GtfsConverter{Feed: feed, DefaultAwaitDeparture: true}
		sched, err = conv.Convert(*gtfsDay)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(os.Stdout, " done.\n")

		if len(*gtfsOut) > 0 {
			fmt.Fprintf(os.Stdout, "Outputting GTFS feed to '%s' ...", *gtfsOut)
			if _, err := os.Stat(*gtfsOut); os.IsNotExist(err) {
				if path.Ext(*gtfsOut) == ".zip" {
					os.Create(*gtfsOut)
				} else {
					os.Mkdir(*gtfsOut, os.ModePerm)
				}
			}
			w := gtfswriter.Writer{ZipCompressionLevel: 9, Sorted: true}
			if err := w.Write(feed, *gtfsOut); err != nil {
				panic(err)
			}
			fmt.Fprintf(os.Stdout, " done.\n")
		}
	} else if len(*schedulePath) > 0 {
		fmt.Fprintf(os.Stdout, "Parsing transit schedule in '%s' ...", *schedulePath)
		sched, err = schedule.ReadXMLFile(*schedulePath)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(os.Stdout, " done.\n")
	} else {
		fmt.Fprintln(os.Stderr, "No schedule input specified (GTFS feed or --schedule), see --help")
		os.Exit(1)
	}

	m := mapper.NewPTMapper(sched, net)
	if _, err := m.Run(cfg); err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stdout, "Outputting transit schedule to '%s' ...", *outputSchedule)
	if err := sched.WriteXMLFile(*outputSchedule); err != nil {
		panic(err)
	}
	fmt.Fprintf(os.Stdout, " done.\n")

	fmt.Fprintf(os.Stdout, "Outputting network to '%s' ...", *outputNetwork)
	if err := net.WriteXMLFile(*outputNetwork); err != nil {
		panic(err)
	}
	fmt.Fprintf(os.Stdout, " done.\n")

	if len(*streetNetwork) > 0 {
		modes := make(map[string]bool)
		for _, sm := range strings.Split(*streetModesStr, ",") {
			sm = strings.TrimSpace(sm)
			if len(sm) > 0 {
				modes[sm] = true
			}
		}
		fmt.Fprintf(os.Stdout, "Outputting street network to '%s' ...", *streetNetwork)
		if err := net.Subset(net.Name, modes).WriteXMLFile(*streetNetwork); err != nil {
			panic(err)
		}
		fmt.Fprintf(os.Stdout, " done.\n")
	}

	if len(*geojsonDir) > 0 {
		if _, err := os.Stat(*geojsonDir); os.IsNotExist(err) {
			os.Mkdir(*geojsonDir, os.ModePerm)
		}
		fmt.Fprintf(os.Stdout, "Outputting geojson to '%s' ...", *geojsonDir)
		if err := tools.WriteGeojson(tools.NetworkToGeojson(net), path.Join(*geojsonDir, "network.geojson")); err != nil {
			panic(err)
		}
		if err := tools.WriteGeojson(tools.RoutesToGeojson(sched, net), path.Join(*geojsonDir, "routes.geojson")); err != nil {
			panic(err)
		}
		fmt.Fprintf(os.Stdout, " done.\n")
	}
}
