package report

import "encoding/json"

type jsonFormatter struct{}

func (jsonFormatter) FormatCatalogue(v CatalogueView) (string, error) {
	return marshal(struct {
		Format string `json:"format"`
		CatalogueView
	}{Format: string(FormatJSON), CatalogueView: v})
}

func (jsonFormatter) FormatPlan(v PlanView) (string, error) {
	return marshal(struct {
		Format string `json:"format"`
		PlanView
	}{Format: string(FormatJSON), PlanView: v})
}

func (jsonFormatter) FormatImportResult(v ImportResultView) (string, error) {
	return marshal(struct {
		Format string `json:"format"`
		ImportResultView
	}{Format: string(FormatJSON), ImportResultView: v})
}

func marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
