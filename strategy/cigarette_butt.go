package strategy

import (
	"github.com/guoqi2046/aselect/config"
	"github.com/guoqi2046/aselect/model"
)

// IsCigaretteButt 烟蒂股策略：
// 1) 市净率低于 max_pb
// 2) 市值低于净流动资产（流动资产 - 总负债）
// 3) 资产负债率低于 max_debt_ratio
// 4) 最近一期经营现金流为正（可配置关闭）
// 任一所需子表或列缺失时不命中。
func IsCigaretteButt(fd *model.Fundamentals, p config.CigaretteButtParams) bool {
	if fd == nil || len(fd.Valuation) == 0 {
		return false
	}

	valuation := fd.Valuation[len(fd.Valuation)-1]
	if !(valuation.PB < p.MaxPB) {
		return false
	}

	if len(fd.Balance) == 0 {
		return false
	}
	balance := fd.Balance[len(fd.Balance)-1]

	ncav := balance.TotalCurrentAssets - balance.TotalLiabilities
	if !(valuation.TotalMV < ncav) {
		return false
	}

	if !(balance.TotalLiabilities/balance.TotalAssets < p.MaxDebtRatio/100) {
		return false
	}

	if p.MinPositiveCashFlow {
		if len(fd.CashFlow) == 0 {
			return false
		}
		cashFlow := fd.CashFlow[len(fd.CashFlow)-1]
		if !(cashFlow.NetCashOperate > 0) {
			return false
		}
	}
	return true
}
