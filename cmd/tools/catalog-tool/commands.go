// cmd/tools/catalog-tool/commands.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"subtrack-workers/internal/common/validation"
	"subtrack-workers/internal/entitlements"
	"subtrack-workers/internal/importer"
	"subtrack-workers/pkg/registry"
)

func runPlans(w io.Writer, path string) error {
	catalog := entitlements.DefaultCatalog()
	if path != "" {
		var err error
		if catalog, err = entitlements.LoadCatalog(path); err != nil {
			return err
		}
	}

	tiers := catalog.Tiers()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"FEATURE"}
	for _, t := range tiers {
		header = append(header, strings.ToUpper(string(t)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, f := range catalog.Features() {
		cells := []string{string(f)}
		for _, t := range tiers {
			plan, _ := catalog.Plan(t)
			cells = append(cells, describeLimit(plan.Limits[f]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nCatalog OK: %d plans, %d features.\n", len(tiers), len(catalog.Features()))
	return nil
}

func describeLimit(l entitlements.Limit) string {
	switch l.Kind {
	case entitlements.KindUnlimited:
		return "unlimited"
	case entitlements.KindFlag:
		if l.Enabled {
			return "yes"
		}
		return "no"
	case entitlements.KindCounter:
		return fmt.Sprintf("%d %s", l.Max, l.UsageKey)
	case entitlements.KindQuantity:
		return strconv.Itoa(l.Max)
	case entitlements.KindList:
		return strings.Join(l.Values, ",")
	default:
		return "-"
	}
}

func runRegistry(w io.Writer, path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	schemas, err := validation.NewSchemaValidator(len(reg.Activities))
	if err != nil {
		return err
	}

	errs := []error{reg.Check()}
	withSchema := 0
	for _, a := range reg.Activities {
		if err := validation.ValidateActivityNaming(a.ID); err != nil {
			errs = append(errs, err)
		}
		if len(a.InputSchema) == 0 {
			continue
		}
		if _, err := schemas.Compile(a.TaskType, a.InputSchema); err != nil {
			errs = append(errs, err)
			continue
		}
		withSchema++
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	fmt.Fprintf(w, "Registry validation passed. Found %d activities, %d with input schemas.\n", len(reg.Activities), withSchema)

	perDomain := map[string]int{}
	for _, a := range reg.Activities {
		perDomain[a.Domain()]++
	}
	domains := make([]string, 0, len(perDomain))
	for d := range perDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		fmt.Fprintf(w, "  %-14s %d\n", d, perDomain[d])
	}
	return nil
}

func runImport(w io.Writer, file, policyName string) error {
	if err := importer.CheckFormat(file); err != nil {
		return err
	}
	policy, err := importer.PolicyByName(policyName)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	parsed, err := importer.ParseFile(file, f)
	if err != nil {
		return err
	}

	mapping := importer.AutoMapFields(parsed.Headers)
	fields := make([]string, 0, len(mapping))
	for field := range mapping {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	fmt.Fprintf(w, "Rows: %d\n", parsed.TotalRows)
	for _, field := range fields {
		fmt.Fprintf(w, "  %-18s <- %q\n", field, parsed.Headers[mapping[field]])
	}
	if missing := importer.MissingRequired(mapping); len(missing) > 0 {
		fmt.Fprintf(w, "Unmapped required fields: %s\n", strings.Join(missing, ", "))
	}

	res, err := importer.NewValidator(policy).ValidateBatch(parsed.Rows, mapping)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Accepted: %d of %d (policy %s)\n", len(res.ValidRecords), res.TotalRows, res.Policy)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	return nil
}
