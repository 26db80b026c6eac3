// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// discard is the provider and the meter in use while metrics are disabled.
type discard struct{}

func (discard) counter(string) CountMeter                                { return discard{} }
func (discard) counterVec(string, []string) CountVecMeter                { return discard{} }
func (discard) gauge(string) GaugeMeter                                  { return discard{} }
func (discard) gaugeVec(string, []string) GaugeVecMeter                  { return discard{} }
func (discard) histogramVec(string, []string, []int64) HistogramVecMeter { return discard{} }

func (discard) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "metrics disabled", http.StatusNotFound)
	})
}

func (discard) Add(int64)                                  {}
func (discard) Set(int64)                                  {}
func (discard) AddWithLabel(int64, map[string]string)      {}
func (discard) SetWithLabel(int64, map[string]string)      {}
func (discard) ObserveWithLabels(int64, map[string]string) {}
