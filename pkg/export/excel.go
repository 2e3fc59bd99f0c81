/*
Copyright 2026 Veriqan Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// ExcelizeLayoutWriter implements ExcelLayoutWriter on top of excelize,
// emitting the fixed registration-layout columns onto a single sheet.
type ExcelizeLayoutWriter struct{}

var excelColumns = []string{
	"NumeroExpediente", "NumeroOficio", "Subdivision", "Persona", "RFC", "Caracter", "TipoAccion", "Cuenta", "Confidence",
}

// WriteLayout emits one header row and one row per (persona, action) pair;
// a record with no compliance actions still emits one row per persona.
func (ExcelizeLayoutWriter) WriteLayout(w io.Writer, record domain.UnifiedMetadataRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Registro"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range excelColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	row := 2
	writeRow := func(persona domain.Persona, action *domain.ComplianceAction) {
		values := []any{
			record.Expediente.NumeroExpediente,
			record.Expediente.NumeroOficio,
			string(record.Expediente.Subdivision),
			persona.Nombre + " " + persona.Paterno + " " + persona.Materno,
			persona.RFC,
			persona.Caracter,
		}
		if action != nil {
			cuenta := action.AccountNumber
			if cuenta == "" && action.Cuenta != nil {
				cuenta = action.Cuenta.Numero
			}
			values = append(values, string(action.ActionType), cuenta, action.Confidence)
		} else {
			values = append(values, "", "", 0)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	if len(record.Personas) == 0 {
		for i := range record.ComplianceActions {
			writeRow(domain.Persona{}, &record.ComplianceActions[i])
		}
	}
	for _, p := range record.Personas {
		if len(record.ComplianceActions) == 0 {
			writeRow(p, nil)
			continue
		}
		for i := range record.ComplianceActions {
			writeRow(p, &record.ComplianceActions[i])
		}
	}

	return f.Write(w)
}
