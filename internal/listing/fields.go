package listing

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-cms-listing/internal/templates"
)

// Form field kinds understood by the admin.
const (
	FieldDropdown = "dropdown"
	FieldCheckbox = "checkbox"
	FieldNumeric  = "numeric"
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldTree     = "tree"
	FieldLiteral  = "literal"
	FieldKeyValue = "keyvalue"
)

// Form is a declarative admin form the host renders.
type Form struct {
	Tabs []FormTab `json:"tabs"`
}

// Tab returns the tab called name.
func (f *Form) Tab(name string) (*FormTab, bool) {
	for i := range f.Tabs {
		if f.Tabs[i].Name == name {
			return &f.Tabs[i], true
		}
	}
	return nil, false
}

// Field finds a field by name across tabs.
func (f *Form) Field(name string) (*FormField, bool) {
	for i := range f.Tabs {
		for j := range f.Tabs[i].Fields {
			if f.Tabs[i].Fields[j].Name == name {
				return &f.Tabs[i].Fields[j], true
			}
		}
	}
	return nil, false
}

// FormTab groups fields.
type FormTab struct {
	Name   string      `json:"name"`
	Title  string      `json:"title"`
	Fields []FormField `json:"fields"`
}

// FormField describes one input.
type FormField struct {
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	Label       string       `json:"label,omitempty"`
	Description string       `json:"description,omitempty"`
	Options     []FormOption `json:"options,omitempty"`
	EmptyString string       `json:"empty_string,omitempty"`
	Value       any          `json:"value,omitempty"`
	// RootType is the record type a tree field browses.
	RootType string `json:"root_type,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	ReadOnly bool   `json:"read_only,omitempty"`
	// Content is the markup of a literal field.
	Content string `json:"content,omitempty"`
}

// FormOption is one dropdown choice.
type FormOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

const templateRows = 15

// Fields describes the admin form for element.
func (s *service) Fields(ctx context.Context, element *Element) (*Form, error) {
	if element == nil {
		element = &Element{}
	}
	catalog := s.graph.Catalog()
	listType := s.listType(element)

	settings := FormTab{Name: "Settings", Title: "Settings"}
	settings.Fields = append(settings.Fields,
		FormField{
			Name:    "ListType",
			Kind:    FieldDropdown,
			Label:   "List items of type",
			Options: valueOptions(catalog.Names()),
			Value:   listType,
		},
		FormField{
			Name:  "StrictType",
			Kind:  FieldCheckbox,
			Label: "List JUST this type, not descendents",
			Value: element.StrictType,
		},
		FormField{
			Name:  "PerPage",
			Kind:  FieldNumeric,
			Label: "Items Per Page",
			Value: element.PerPage,
		},
		FormField{
			Name:    "SortDir",
			Kind:    FieldDropdown,
			Label:   "Sort direction",
			Options: valueOptions([]string{SortAscending, SortDescending}),
			Value:   element.SortDir,
		},
		FormField{
			Name:    "SortBy",
			Kind:    FieldDropdown,
			Label:   "Sort by",
			Options: valueOptions(catalog.SelectableFields(listType)),
			Value:   element.SortBy,
		},
	)

	sourceType := s.EffectiveSourceType(element)
	if parentType := catalog.ParentType(sourceType); sourceType != "" && parentType != "" {
		depths := make([]FormOption, 0, s.listing.MaxDepth)
		for depth := 1; depth <= s.listing.MaxDepth; depth++ {
			value := strconv.Itoa(depth)
			depths = append(depths, FormOption{Value: value, Label: value})
		}
		var source any
		if element.ListingSourceID != nil {
			source = element.ListingSourceID.String()
		}
		settings.Fields = append(settings.Fields,
			FormField{
				Name:     "ListingSourceID",
				Kind:     FieldTree,
				Label:    "Source of content for listing",
				RootType: parentType,
				Value:    source,
			},
			FormField{
				Name:    "Depth",
				Kind:    FieldDropdown,
				Label:   "Depth",
				Options: depths,
				Value:   element.Depth,
			},
		)
	}

	templatesTab, err := s.templateFields(element)
	if err != nil {
		return nil, err
	}

	form := &Form{Tabs: []FormTab{settings, templatesTab, s.advancedFields(element, listType)}}
	return form, nil
}

func (s *service) templateFields(element *Element) (FormTab, error) {
	tab := FormTab{Name: "Templates", Title: "Templates"}
	files, err := s.TemplateFiles()
	if err != nil {
		return tab, err
	}
	disabled := s.templates.CMSTemplatesDisabled

	if disabled && len(files) == 0 {
		tab.Fields = append(tab.Fields, FormField{
			Kind:    FieldLiteral,
			Content: `<p class="message bad">No templates available.</p>`,
		})
		return tab, nil
	}

	if len(files) > 0 {
		options := make([]FormOption, 0, len(files))
		for _, key := range templates.SortedKeys(files) {
			options = append(options, FormOption{Value: key, Label: files[key]})
		}
		tab.Fields = append(tab.Fields,
			FormField{
				Name:        "ListingTemplateFile",
				Kind:        FieldDropdown,
				Label:       "Listing template file",
				Options:     options,
				EmptyString: "Select...",
				Value:       element.ListingTemplateFile,
			},
			FormField{
				Name:        "ComponentListingTemplateFile",
				Kind:        FieldDropdown,
				Label:       "Component listing template file",
				Options:     options,
				EmptyString: "Select...",
				Value:       element.ComponentListingTemplateFile,
			},
		)
	}

	if !disabled {
		tab.Fields = append(tab.Fields,
			FormField{
				Name:  "ListingTemplate",
				Kind:  FieldTextarea,
				Label: "Listing template",
				Rows:  templateRows,
				Value: element.ListingTemplate,
			},
			FormField{
				Name:  "ComponentListingTemplate",
				Kind:  FieldTextarea,
				Label: "Component listing template",
				Rows:  templateRows,
				Value: element.ComponentListingTemplate,
			},
		)
		if sample := s.templates.SamplePagination; sample != "" {
			tab.Fields = append(tab.Fields, FormField{
				Name:     "TemplateSamplePagination",
				Kind:     FieldTextarea,
				Label:    "Sample template pagination",
				Rows:     templateRows,
				ReadOnly: true,
				Value:    sample,
			})
		}
	}
	return tab, nil
}

func (s *service) advancedFields(element *Element, listType string) FormTab {
	tab := FormTab{Name: "Advanced", Title: "Advanced settings"}
	tab.Fields = append(tab.Fields,
		FormField{
			Name:        "CustomSort",
			Kind:        FieldText,
			Label:       "Custom sort GET parameter name",
			Description: "If set, add this as a URL param to sort the list. Will also look for {name}_dir as the sort direction",
			Value:       element.CustomSort,
		},
		FormField{
			Name:  "AllowDrilldown",
			Kind:  FieldCheckbox,
			Label: "Allow request action to provide substitute source ID, e.g. /page-url/43",
			Value: element.AllowDrilldown,
		},
	)
	if element.ListType == "" {
		return tab
	}

	catalog := s.graph.Catalog()
	relations := catalog.ManyMany(listType)
	names := make([]string, 0, len(relations))
	for name := range relations {
		names = append(names, name)
	}
	relationOptions := make([]FormOption, 0, len(names))
	for _, name := range sortedNames(names) {
		relationOptions = append(relationOptions, FormOption{
			Value: name,
			Label: fmt.Sprintf("%s (%s)", nameToLabel(name), relations[name].Target),
		})
	}
	tab.Fields = append(tab.Fields, FormField{
		Name:        "ComponentFilterName",
		Kind:        FieldDropdown,
		Label:       "Filter by relation",
		Options:     relationOptions,
		EmptyString: "Select...",
		Description: fmt.Sprintf("Will cause this page to list items based on the last URL part. (i.e. %s{$componentFieldName})", s.elementLink(element)),
		Value:       element.ComponentFilterName,
	})

	column := FormField{
		Name:        "ComponentFilterColumn",
		Kind:        FieldDropdown,
		Label:       "Filter by relation field",
		EmptyString: "(Must select a relation and Save)",
		Value:       element.ComponentFilterColumn,
	}
	var where *FormField
	if element.ComponentFilterName != "" {
		if rel, ok := relations[element.ComponentFilterName]; ok && rel.Target != "" {
			fields := valueOptions(catalog.SelectableFields(rel.Target))
			column.Options = fields
			column.EmptyString = "Select..."
			where = &FormField{
				Name:        "ComponentFilterWhere",
				Kind:        FieldKeyValue,
				Label:       "Constrain relation by",
				Options:     fields,
				Description: fmt.Sprintf("Filter '%s' with these properties.", element.ComponentFilterName),
				Value:       element.ComponentFilterWhere,
			}
		}
	}
	tab.Fields = append(tab.Fields, column)
	if where != nil {
		tab.Fields = append(tab.Fields, *where)
	}
	return tab
}

func valueOptions(values []string) []FormOption {
	out := make([]FormOption, 0, len(values))
	for _, value := range values {
		out = append(out, FormOption{Value: value, Label: value})
	}
	return out
}

var labelBoundary = regexp.MustCompile(`([a-z]+)([A-Z])`)

// nameToLabel turns "RelatedTopics" into "Related Topics". Dotted names keep
// their last two parts.
func nameToLabel(name string) string {
	if parts := strings.Split(name, "."); len(parts) > 1 {
		name = parts[len(parts)-2] + " " + parts[len(parts)-1]
	}
	return labelBoundary.ReplaceAllString(name, "$1 $2")
}
