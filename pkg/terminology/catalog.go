package terminology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source ties together the three names a reference source goes by: its id in
// the concept registry (OCL), its name in the OpenMRS store, and the
// organisation that owns it in the registry.
type Source struct {
	RegistryID string `yaml:"registry_id" json:"registry_id"`
	StoreName  string `yaml:"store_name" json:"store_name"`
	Owner      string `yaml:"owner" json:"owner"`
	OwnerType  string `yaml:"owner_type" json:"owner_type"`
}

type Catalog struct {
	Sources []Source `yaml:"sources" json:"sources"`

	byRegistryID map[string]Source
	byStoreName  map[string]Source
}

// Load reads a source directory file. An empty path yields the defaults;
// entries in the file override defaults with the same registry id.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	var file Catalog
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse source directory: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source directory %s is empty", path)
	}
	merged := DefaultCatalog().Sources
	for _, s := range file.Sources {
		replaced := false
		for i := range merged {
			if strings.EqualFold(merged[i].RegistryID, s.RegistryID) {
				merged[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, s)
		}
	}
	return NewCatalog(merged), nil
}

func NewCatalog(sources []Source) *Catalog {
	c := &Catalog{
		Sources:      sources,
		byRegistryID: make(map[string]Source, len(sources)),
		byStoreName:  make(map[string]Source, len(sources)),
	}
	for _, s := range sources {
		if s.OwnerType == "" {
			s.OwnerType = "orgs"
		}
		c.byRegistryID[strings.ToLower(s.RegistryID)] = s
		c.byStoreName[strings.ToLower(s.StoreName)] = s
	}
	return c
}

// StoreName translates a registry source id into the reference source name
// used by the store. Unknown ids are assumed to be spelled the same way.
func (c *Catalog) StoreName(registryID string) string {
	if s, ok := c.byRegistryID[strings.ToLower(registryID)]; ok && s.StoreName != "" {
		return s.StoreName
	}
	return registryID
}

// RegistryID is the inverse of StoreName.
func (c *Catalog) RegistryID(storeName string) string {
	if s, ok := c.byStoreName[strings.ToLower(storeName)]; ok && s.RegistryID != "" {
		return s.RegistryID
	}
	return storeName
}

// Lookup finds a source by its registry id.
func (c *Catalog) Lookup(registryID string) (Source, bool) {
	s, ok := c.byRegistryID[strings.ToLower(registryID)]
	return s, ok
}

func DefaultCatalog() *Catalog {
	return NewCatalog([]Source{
		{RegistryID: "CIEL", StoreName: "CIEL", Owner: "CIEL"},
		{RegistryID: "SNOMED-CT", StoreName: "SNOMED CT", Owner: "IHTSDO"},
		{RegistryID: "SNOMED-NP", StoreName: "SNOMED NP", Owner: "IHTSDO"},
		{RegistryID: "SNOMED-MVP", StoreName: "SNOMED MVP", Owner: "IHTSDO"},
		{RegistryID: "ICD-10-WHO", StoreName: "ICD-10-WHO", Owner: "WHO"},
		{RegistryID: "ICD-10-WHO-NP", StoreName: "ICD-10-WHO NP", Owner: "WHO"},
		{RegistryID: "ICD-10-WHO-2nd", StoreName: "ICD-10-WHO 2nd", Owner: "WHO"},
		{RegistryID: "ICD-10-WHO-NP2", StoreName: "ICD-10-WHO NP2", Owner: "WHO"},
		{RegistryID: "ICPC2", StoreName: "ICPC2", Owner: "WICC"},
		{RegistryID: "LOINC", StoreName: "LOINC", Owner: "Regenstrief"},
		{RegistryID: "RxNORM", StoreName: "RxNORM", Owner: "NLM"},
		{RegistryID: "RxNORM-Comb", StoreName: "RxNORM Comb", Owner: "NLM"},
		{RegistryID: "HL7-CVX", StoreName: "HL-7 CVX", Owner: "HL7"},
		{RegistryID: "NDF-RT-NUI", StoreName: "NDF-RT NUI", Owner: "VA"},
		{RegistryID: "ISO-3166-2", StoreName: "ISO 3166-2", Owner: "ISO"},
		{RegistryID: "PIH", StoreName: "PIH", Owner: "PIH"},
		{RegistryID: "PIH-Malawi", StoreName: "PIH Malawi", Owner: "PIH"},
		{RegistryID: "AMPATH", StoreName: "AMPATH", Owner: "AMPATH"},
		{RegistryID: "MVP-Amman", StoreName: "MVP Amman", Owner: "MSF-OCP"},
		{RegistryID: "MSF-OCP", StoreName: "MSF-OCP", Owner: "MSF-OCP"},
		{RegistryID: "3BT", StoreName: "3BT", Owner: "3BT"},
		{RegistryID: "Emory", StoreName: "Emory", Owner: "Emory"},
		{RegistryID: "IMO-ProblemIT", StoreName: "IMO ProblemIT", Owner: "IMO"},
		{RegistryID: "IMO-ProcedureIT", StoreName: "IMO ProcedureIT", Owner: "IMO"},
		{RegistryID: "Medication-Frequency", StoreName: "Medication Frequency", Owner: "CIEL"},
		{RegistryID: "OpenMRS", StoreName: "org.openmrs.module.emrapi", Owner: "OpenMRS"},
	})
}
