// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package provider_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/brfin/data"
	"github.com/penny-vault/brfin/library"
	"github.com/penny-vault/brfin/provider"
)

func byCode(facts []*data.Fact, code string, order int) *data.Fact {
	for _, fact := range facts {
		if fact.AccountCode == code && fact.PeriodOrder == order {
			return fact
		}
	}
	return nil
}

var _ = Describe("ParseZip", func() {
	var facts []*data.Fact

	BeforeEach(func() {
		var err error
		facts, err = provider.ParseZip(buildZip(statementFiles), data.Annual)
		Expect(err).NotTo(HaveOccurred())
	})

	It("ignores filing lists and malformed rows", func() {
		Expect(facts).To(HaveLen(4))
	})

	It("translates the current period", func() {
		revenue := byCode(facts, "3.01", data.CurrentPeriod)
		Expect(revenue).NotTo(BeNil())
		Expect(revenue.CompanyID).To(Equal(9512))
		Expect(revenue.CompanyName).To(Equal("PETROLEO BRASILEIRO S.A. PETROBRAS"))
		Expect(revenue.FiscalID).To(Equal("33.000.167/0001-01"))
		Expect(revenue.Kind).To(Equal(data.Annual))
		Expect(revenue.Basis).To(Equal(data.Consolidated))
		Expect(revenue.Version).To(Equal(1))
		Expect(revenue.AccountName).To(Equal("Receita de Venda de Bens e/ou Serviços"))
		Expect(revenue.AccountFixed).To(BeTrue())
		Expect(revenue.PeriodBegin).To(Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)))
		Expect(revenue.PeriodEnd).To(Equal(time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)))
		Expect(revenue.Value.String()).To(Equal("641256000000"))
	})

	It("translates the prior period", func() {
		revenue := byCode(facts, "3.01", data.PriorPeriod)
		Expect(revenue).NotTo(BeNil())
		Expect(revenue.PeriodReference).To(Equal(time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)))
		Expect(revenue.PeriodEnd).To(Equal(time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)))
	})

	It("leaves earnings per share unscaled", func() {
		eps := byCode(facts, "3.99.01.01", data.CurrentPeriod)
		Expect(eps).NotTo(BeNil())
		Expect(eps.Value.String()).To(Equal("14.05"))
		Expect(eps.AccountName).To(Equal("ON"))
		Expect(eps.AccountFixed).To(BeFalse())
	})

	It("keeps the last of repeated rows", func() {
		assets := byCode(facts, "1", data.CurrentPeriod)
		Expect(assets).NotTo(BeNil())
		Expect(assets.Basis).To(Equal(data.Separate))
		Expect(assets.PeriodBegin.IsZero()).To(BeTrue())
		Expect(assets.Value.String()).To(Equal("1200"))
		Expect(assets.Version).To(Equal(2))
	})

	It("rejects files that are not archives", func() {
		_, err := provider.ParseZip([]byte("not a zip"), data.Annual)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseStatementCSV", func() {
	It("keeps every column of the changes in equity statement", func() {
		in := equityHeader +
			"33.592.510/0001-54;2022-12-31;1;VALE S.A.;4170;DF Consolidado - Demonstração das Mutações do Patrimônio Líquido;REAL;MIL;ÚLTIMO;2022-01-01;2022-12-31;Capital Social Integralizado;5.01;Saldos Iniciais;100;S\n" +
			"33.592.510/0001-54;2022-12-31;1;VALE S.A.;4170;DF Consolidado - Demonstração das Mutações do Patrimônio Líquido;REAL;MIL;ÚLTIMO;2022-01-01;2022-12-31;Patrimônio Líquido Consolidado;5.01;Saldos Iniciais;7;S\n"

		facts, err := provider.ParseStatementCSV(latin1(in), data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(facts).To(HaveLen(2))
		Expect(facts[0].EquityColumn).To(Equal("Capital Social Integralizado"))
		Expect(facts[0].Value.String()).To(Equal("100000"))
		Expect(facts[1].EquityColumn).To(Equal("Patrimônio Líquido Consolidado"))
		Expect(facts[1].Value.String()).To(Equal("7000"))
	})
})

var _ = Describe("ParseZip equity columns", func() {
	It("does not merge rows that differ only by equity column", func() {
		in := equityHeader +
			"33.592.510/0001-54;2022-12-31;1;VALE S.A.;4170;DF Individual - Demonstração das Mutações do Patrimônio Líquido;REAL;UNIDADE;ÚLTIMO;2022-01-01;2022-12-31;Reservas de Lucro;5.04;Transações de Capital;10;S\n" +
			"33.592.510/0001-54;2022-12-31;1;VALE S.A.;4170;DF Individual - Demonstração das Mutações do Patrimônio Líquido;REAL;UNIDADE;ÚLTIMO;2022-01-01;2022-12-31;Patrimônio Líquido;5.04;Transações de Capital;25;S\n"

		facts, err := provider.ParseZip(buildZip(map[string]string{"dfp_cia_aberta_DMPL_ind_2022.csv": in}), data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(facts).To(HaveLen(2))
	})
})

type fakeLedger map[string]*library.FileRecord

func (ledger fakeLedger) File(ctx context.Context, name string) (*library.FileRecord, error) {
	return ledger[name], nil
}

var _ = Describe("CVM", func() {
	var (
		server  *httptest.Server
		archive []byte
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		archive = buildZip(statementFiles)
		modified := time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)

		mux := http.NewServeMux()
		mux.HandleFunc("/DFP/DADOS/", func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimPrefix(r.URL.Path, "/DFP/DADOS/")
			switch name {
			case "":
				fmt.Fprint(w, `<html><body>
<a href="dfp_cia_aberta_2021.zip">dfp_cia_aberta_2021.zip</a>
<a href="dfp_cia_aberta_2022.zip">dfp_cia_aberta_2022.zip</a>
<a href='dfp_cia_aberta_2022.zip'>dfp_cia_aberta_2022.zip</a>
<a href="../">Parent Directory</a>
<a href="meta_dfp_cia_aberta.txt">meta_dfp_cia_aberta.txt</a>
</body></html>`)
			case "dfp_cia_aberta_2021.zip", "dfp_cia_aberta_2022.zip":
				w.Header().Set("ETag", fmt.Sprintf(`"%s"`, name))
				http.ServeContent(w, r, name, modified, bytes.NewReader(archive))
			default:
				http.NotFound(w, r)
			}
		})
		mux.HandleFunc("/offline/", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusInternalServerError)
		})
		server = httptest.NewServer(mux)
	})

	AfterEach(func() {
		server.Close()
	})

	It("lists its datasets", func() {
		cvm, err := provider.Get("CVM")
		Expect(err).NotTo(HaveOccurred())
		Expect(cvm.Datasets()).To(HaveKey("DFP"))
		Expect(cvm.Datasets()).To(HaveKey("ITR"))
		Expect(cvm.Datasets()["ITR"].Kind).To(Equal(data.Quarterly))

		_, err = provider.Lookup("CVM", "FRE")
		Expect(errors.Is(err, provider.ErrDatasetNotFound)).To(BeTrue())
		_, err = provider.Get("B3")
		Expect(errors.Is(err, provider.ErrProviderNotFound)).To(BeTrue())
	})

	It("downloads only changed files", func() {
		dataset, err := provider.Lookup("CVM", "DFP")
		Expect(err).NotTo(HaveOccurred())

		dir := GinkgoT().TempDir()
		opts := &provider.Options{
			BaseURL:     server.URL,
			RateLimit:   60000,
			DownloadDir: dir,
			Ledger: fakeLedger{
				"dfp_cia_aberta_2021.zip": {Name: "dfp_cia_aberta_2021.zip", ETag: `"dfp_cia_aberta_2021.zip"`},
			},
		}

		out := make(chan *data.Batch, 10)
		summaries := make(chan data.RunSummary, 10)
		dataset.Fetch(ctx, opts, out, summaries)
		close(out)
		close(summaries)

		statuses := map[string]data.RunStatus{}
		for summary := range summaries {
			statuses[summary.FileName] = summary.Status
		}
		Expect(statuses).To(Equal(map[string]data.RunStatus{
			"dfp_cia_aberta_2021.zip": data.RunSkipped,
			"dfp_cia_aberta_2022.zip": data.RunSuccess,
		}))

		batches := []*data.Batch{}
		for batch := range out {
			batches = append(batches, batch)
		}
		Expect(batches).To(HaveLen(1))
		Expect(batches[0].FileName).To(Equal("dfp_cia_aberta_2022.zip"))
		Expect(batches[0].ETag).To(Equal(`"dfp_cia_aberta_2022.zip"`))
		Expect(batches[0].Size).To(Equal(int64(len(archive))))
		Expect(batches[0].Facts).To(HaveLen(4))

		_, err = os.Stat(filepath.Join(dir, "dfp_cia_aberta_2022.zip"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports a failed run when the index cannot be listed", func() {
		dataset, err := provider.Lookup("CVM", "DFP")
		Expect(err).NotTo(HaveOccurred())

		opts := &provider.Options{
			BaseURL:   server.URL + "/offline/",
			RateLimit: 60000,
		}

		out := make(chan *data.Batch, 10)
		summaries := make(chan data.RunSummary, 10)
		dataset.Fetch(ctx, opts, out, summaries)
		close(out)
		close(summaries)

		runs := []data.RunSummary{}
		for summary := range summaries {
			runs = append(runs, summary)
		}
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].Status).To(Equal(data.RunFailed))
		Expect(runs[0].FileName).To(Equal(server.URL + "/offline/DFP/DADOS/"))
		Expect(out).To(BeEmpty())
	})
})
