package unifier

import (
	"fmt"
	"sort"
	"strings"
)

// UniversalPythonClient renders a Python module that dynamically imports
// each domain's generated client package and aggregates `search` across
// all of them, per §4.11's "universal client" requirement.
func UniversalPythonClient(schema UnifiedSchema, domains []string) string {
	sorted := make([]string, len(domains))
	copy(sorted, domains)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("\"\"\"Universal client aggregating generated per-domain clients.\"\"\"\n\n")
	b.WriteString("import importlib\n\n")

	b.WriteString("_DOMAIN_MODULES = {\n")
	for _, d := range sorted {
		fmt.Fprintf(&b, "    %q: %q,\n", d, pythonModuleName(d))
	}
	b.WriteString("}\n\n")

	b.WriteString("def _load(domain):\n")
	b.WriteString("    module_name = _DOMAIN_MODULES.get(domain)\n")
	b.WriteString("    if module_name is None:\n")
	b.WriteString("        raise KeyError(f\"no generated client for domain {domain!r}\")\n")
	b.WriteString("    return importlib.import_module(module_name)\n\n")

	b.WriteString("def search(model_name, query, domains=None):\n")
	b.WriteString("    \"\"\"Search model_name for query across every registered domain (or the given subset).\"\"\"\n")
	b.WriteString("    targets = domains if domains is not None else list(_DOMAIN_MODULES)\n")
	b.WriteString("    results = []\n")
	b.WriteString("    for domain in targets:\n")
	b.WriteString("        module = _load(domain)\n")
	b.WriteString("        model_cls = getattr(module, model_name, None)\n")
	b.WriteString("        if model_cls is None or not hasattr(model_cls, \"search\"):\n")
	b.WriteString("            continue\n")
	b.WriteString("        results.extend(model_cls.search(query))\n")
	b.WriteString("    return results\n")

	return b.String()
}

func pythonModuleName(domain string) string {
	safe := strings.ReplaceAll(domain, ".", "_")
	safe = strings.ReplaceAll(safe, "-", "_")
	return "clients." + safe
}
