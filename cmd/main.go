package main

import (
	"FlatKV/config" // 引入配置文件模块
	"FlatKV/database"
	"FlatKV/workload"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {

	confPath := flag.String("conf", "./conf.yaml", "path to conf file")                       // 配置文件路径
	dataFile := flag.String("file", "", "path to data file (overrides conf)")                 // 数据文件路径
	cacheCap := flag.Int("cache", -1, "cache capacity, 0 disables cache, -1 uses conf")       // 缓存容量
	workers := flag.Int("workers", 0, "number of demo workload workers, 0 uses conf default") // 工作协程数量

	flag.Parse() // 解析命令行参数

	// 配置文件存在时初始化配置（命令行参数可以覆盖其中的关键项）
	if _, err := os.Stat(*confPath); err == nil {
		if err := config.Init(*confPath); err != nil {
			log.Fatal(err)
		}
	}

	// 创建数据库实例
	db, err := database.NewFlatDB(*dataFile, *cacheCap)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// 演示负载参数：命令行优先，其次配置文件，最后默认值
	numWorkers := *workers
	rounds := 1
	if conf := config.Get(); conf != nil {
		if numWorkers <= 0 {
			numWorkers = conf.Workload.Workers
		}
		if conf.Workload.Rounds > 0 {
			rounds = conf.Workload.Rounds
		}
	}
	if numWorkers <= 0 {
		numWorkers = 4
	}

	// 运行演示负载
	workload.New(db, numWorkers, rounds).Run()

	// 打印最终缓存内容
	fmt.Println("Final cache:")
	if !db.CacheEnabled() {
		fmt.Println("no cache.")
		return
	}
	for _, line := range db.DumpCache() {
		fmt.Println(line)
	}
}
