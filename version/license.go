package version

import (
	"fmt"
	"io"
)

type License struct {
	ModuleName  string
	LicenseName string
	Link        string
}

var Licenses = []License{
	{
		ModuleName:  "Go",
		LicenseName: "BSD License",
		Link:        "https://golang.org/LICENSE",
	},
	{
		ModuleName:  "aurora",
		LicenseName: "WTFPL",
		Link:        "https://github.com/logrusorgru/aurora/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-isatty",
		LicenseName: "MIT License",
		Link:        "https://github.com/mattn/go-isatty/blob/master/LICENSE",
	},
	{
		ModuleName:  "getopt",
		LicenseName: "BSD License",
		Link:        "https://github.com/pborman/getopt/blob/master/LICENSE",
	},
	{
		ModuleName:  "errors",
		LicenseName: "BSD License",
		Link:        "https://github.com/pkg/errors/blob/master/LICENSE",
	},
	{
		ModuleName:  "bytefmt",
		LicenseName: "Apache License",
		Link:        "https://github.com/cloudfoundry/bytefmt/blob/master/LICENSE",
	},
	{
		ModuleName:  "androiddnsfix",
		LicenseName: "MIT License",
		Link:        "https://github.com/mtibben/androiddnsfix/blob/master/LICENSE",
	},
	{
		ModuleName:  "httpx",
		LicenseName: "MIT License",
		Link:        "https://github.com/gogama/httpx/blob/master/LICENSE",
	},
	{
		ModuleName:  "uuid",
		LicenseName: "BSD License",
		Link:        "https://github.com/google/uuid/blob/master/LICENSE",
	},
	{
		ModuleName:  "yaml",
		LicenseName: "MIT and Apache License",
		Link:        "https://github.com/go-yaml/yaml/blob/v3/LICENSE",
	},
	{
		ModuleName:  "lumberjack",
		LicenseName: "MIT License",
		Link:        "https://github.com/natefinch/lumberjack/blob/v2.0/LICENSE",
	},
	{
		ModuleName:  "golang.org/x/net, golang.org/x/crypto",
		LicenseName: "BSD License",
		Link:        "https://golang.org/LICENSE",
	},
}

func PrintLicenses(w io.Writer) {
	for _, license := range Licenses {
		fmt.Fprintf(w, "%s:\n  %s\n  %s\n\n",
			license.ModuleName,
			license.LicenseName,
			license.Link,
		)
	}
}
