package main

import (
	"fmt"

	"github.com/tilafu/affiliate-drive/internal/config"
	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("初始化默认管理员失败: %v", err)
	}

	seedTierConfigs(stdLog)
	seedProducts(stdLog)

	stdLog.Printf("种子数据初始化完成")
}

type seedLogger interface {
	Printf(format string, args ...interface{})
}

func seedTierConfigs(stdLog seedLogger) {
	tiers := []models.TierQuantityConfig{
		{
			TierName:       constants.TierBronze,
			QuantityLimit:  40,
			NumSingleTasks: 40,
			NumComboTasks:  0,
			MinPriceSingle: money("5"),
			MaxPriceSingle: money("120"),
			Description:    "铜牌会员：每轮 40 个单品任务",
		},
		{
			TierName:       constants.TierSilver,
			QuantityLimit:  40,
			NumSingleTasks: 38,
			NumComboTasks:  2,
			MinPriceSingle: money("10"),
			MaxPriceSingle: money("300"),
			MinPriceCombo:  money("20"),
			MaxPriceCombo:  money("500"),
			Description:    "银牌会员：每轮 40 个任务，含 2 个组合任务",
		},
		{
			TierName:       constants.TierGold,
			QuantityLimit:  45,
			NumSingleTasks: 42,
			NumComboTasks:  3,
			MinPriceSingle: money("20"),
			MaxPriceSingle: money("800"),
			MinPriceCombo:  money("50"),
			MaxPriceCombo:  money("1500"),
			Description:    "金牌会员：每轮 45 个任务，含 3 个组合任务",
		},
		{
			TierName:       constants.TierPlatinum,
			QuantityLimit:  50,
			NumSingleTasks: 46,
			NumComboTasks:  4,
			MinPriceSingle: money("50"),
			MaxPriceSingle: money("2000"),
			MinPriceCombo:  money("100"),
			MaxPriceCombo:  money("5000"),
			Description:    "白金会员：每轮 50 个任务，含 4 个组合任务",
		},
	}

	for _, tier := range tiers {
		tier.IsActive = true
		var existing models.TierQuantityConfig
		if err := models.DB.Where("tier_name = ?", tier.TierName).First(&existing).Error; err != nil {
			if err := models.DB.Create(&tier).Error; err != nil {
				stdLog.Printf("创建等级配置失败 %s: %v", tier.TierName, err)
			} else {
				stdLog.Printf("已创建等级配置: %s", tier.TierName)
			}
		} else {
			stdLog.Printf("等级配置已存在: %s", existing.TierName)
		}
	}
}

func seedProducts(stdLog seedLogger) {
	products := []models.Product{
		{Name: "无线蓝牙耳机", Price: money("39.90"), Description: "入耳式蓝牙 5.3 耳机"},
		{Name: "便携充电宝 10000mAh", Price: money("59.00"), Description: "双口快充移动电源"},
		{Name: "机械键盘 87 键", Price: money("89.00"), Description: "茶轴热插拔机械键盘"},
		{Name: "智能手环", Price: money("129.00"), Description: "心率睡眠监测手环"},
		{Name: "桌面加湿器", Price: money("45.50"), Description: "静音大容量加湿器"},
		{Name: "降噪头戴耳机", Price: money("249.00"), Description: "主动降噪头戴式耳机"},
		{Name: "便携咖啡机", Price: money("199.00"), Description: "手压式浓缩咖啡机"},
		{Name: "智能音箱", Price: money("169.00"), Description: "语音助手智能音箱"},
		{Name: "电竞鼠标", Price: money("79.00"), Description: "轻量化电竞游戏鼠标"},
		{Name: "平板支架", Price: money("25.00"), Description: "铝合金可折叠支架"},
		{Name: "智能手表", Price: money("499.00"), Description: "运动健康智能手表"},
		{Name: "无线充电板", Price: money("69.00"), Description: "15W 快速无线充电板"},
		{Name: "便携显示器 15.6 寸", Price: money("799.00"), Description: "1080P 便携式扩展屏"},
		{Name: "蓝牙音箱", Price: money("119.00"), Description: "户外防水蓝牙音箱"},
		{Name: "摄像头补光灯", Price: money("35.00"), Description: "直播补光环形灯"},
		{Name: "行车记录仪", Price: money("299.00"), Description: "高清夜视行车记录仪"},
		{Name: "电动牙刷", Price: money("159.00"), Description: "声波震动电动牙刷"},
		{Name: "筋膜枪", Price: money("349.00"), Description: "肌肉放松按摩枪"},
		{Name: "空气净化器", Price: money("899.00"), Description: "家用除霾空气净化器"},
		{Name: "扫地机器人", Price: money("1499.00"), Description: "激光导航扫拖一体机"},
		{Name: "投影仪", Price: money("1999.00"), Description: "家用 1080P 智能投影"},
		{Name: "游戏手柄", Price: money("189.00"), Description: "无线体感游戏手柄"},
		{Name: "数位板", Price: money("399.00"), Description: "绘画手写数位板"},
		{Name: "电竞椅", Price: money("1099.00"), Description: "人体工学电竞椅"},
	}

	for _, product := range products {
		product.IsActive = true
		var existing models.Product
		if err := models.DB.Where("name = ?", product.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("创建商品失败 %s: %v", product.Name, err)
			} else {
				stdLog.Printf("已创建商品: %s (%s)", product.Name, product.Price.StringFixed(2))
			}
		} else {
			stdLog.Printf("商品已存在: %s", existing.Name)
		}
	}
}

func money(raw string) models.Money {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		panic(fmt.Errorf("金额格式错误 %q: %w", raw, err))
	}
	return models.NewMoneyFromDecimal(amount)
}
