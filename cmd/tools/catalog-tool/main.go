// cmd/tools/catalog-tool/main.go
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	plansCmd := flag.NewFlagSet("plans", flag.ExitOnError)
	registryCmd := flag.NewFlagSet("registry", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	plansPath := plansCmd.String("path", "configs/plans.yaml", "Path to plan catalog (empty for built-in plans)")
	registryPath := registryCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	importFile := importCmd.String("file", "", "CSV or .xlsx file to dry-run")
	importPolicy := importCmd.String("policy", "all-or-nothing", "Reject policy (all-or-nothing, lenient)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "plans":
		_ = plansCmd.Parse(os.Args[2:])
		err = runPlans(os.Stdout, *plansPath)

	case "registry":
		_ = registryCmd.Parse(os.Args[2:])
		err = runRegistry(os.Stdout, *registryPath)

	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			fmt.Println("Error: -file is required for import.")
			importCmd.Usage()
			os.Exit(1)
		}
		err = runImport(os.Stdout, *importFile, *importPolicy)

	case "help":
		help()
		return

	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func help() {
	fmt.Print(`
Usage: catalog-tool <command> [flags]

Commands:
  plans     Check the plan catalog and print the feature x tier matrix
  registry  Check the activity registry and compile every input schema
  import    Parse and validate a local CSV or workbook the way the import workers do
  help      Show this help message

Examples:
  catalog-tool plans -path configs/plans.yaml
  catalog-tool registry -path configs/activity-registry.json
  catalog-tool import -file subscriptions.csv -policy lenient

Use 'catalog-tool <command> -h' for more information about a command.
` + "\n")
}
