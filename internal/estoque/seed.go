package estoque

// defaultCatalog is the pizzeria's standard ingredient list, installed on
// first run. The fixed ids keep counts and entries portable across
// reinstalls.
var defaultCatalog = []Item{
	{ID: "insumo-4queijos", Name: "4 queijos", Unit: "porção"},
	{ID: "insumo-azeitona", Name: "Azeitona", Unit: "balde"},
	{ID: "insumo-bacon", Name: "Bacon", Unit: "porção"},
	{ID: "insumo-brocolis", Name: "Brócolis", Unit: "pote"},
	{ID: "insumo-calabresa", Name: "Calabresa", Unit: "porção"},
	{ID: "insumo-calabresapicante", Name: "Calabresa picante", Unit: "porção"},
	{ID: "insumo-camarao", Name: "Camarão", Unit: "porção"},
	{ID: "insumo-carnedepanela", Name: "Carne de panela", Unit: "porção"},
	{ID: "insumo-cebola", Name: "Cebola", Unit: "balde"},
	{ID: "insumo-cebolacaramelizada", Name: "Cebola caramelizada", Unit: "pote"},
	{ID: "insumo-chester", Name: "Chester", Unit: "porção"},
	{ID: "insumo-coracao", Name: "Coração", Unit: "porção"},
	{ID: "insumo-costelao", Name: "Costelão", Unit: "porção"},
	{ID: "insumo-doritos", Name: "Doritos", Unit: "porção"},
	{ID: "insumo-frangoaomolho", Name: "Frango ao molho", Unit: "porção"},
	{ID: "insumo-frangoemcubos", Name: "Frango em cubos", Unit: "porção"},
	{ID: "insumo-geleia", Name: "Geleia de amora", Unit: "balde"},
	{ID: "insumo-iscasdecarne", Name: "Iscas de carne", Unit: "porção"},
	{ID: "insumo-macacaramelizada", Name: "Maçã caramelizada", Unit: "pote"},
	{ID: "insumo-molhobarbecue", Name: "Molho Barbecue", Unit: "balde"},
	{ID: "insumo-molhopesto", Name: "Molho pesto", Unit: "pote"},
	{ID: "insumo-molhoalhoeoleo", Name: "Molho alho e óleo", Unit: "pote"},
	{ID: "insumo-molhomaracuja", Name: "Molho de Maracujá", Unit: "pote"},
	{ID: "insumo-molhovermelho", Name: "Molho vermelho pra Camarão", Unit: "pote"},
	{ID: "insumo-ovoemconserva", Name: "Ovo em conserva", Unit: "balde"},
	{ID: "insumo-parmesao", Name: "Parmesão", Unit: "unidade"},
	{ID: "insumo-pepperoni", Name: "Pepperoni", Unit: "porção"},
	{ID: "insumo-presunto", Name: "Presunto", Unit: "porção"},
	{ID: "insumo-queijobrie", Name: "Queijo brie", Unit: "porção"},
	{ID: "insumo-queijogorgonzola", Name: "Queijo gorgonzola", Unit: "porção"},
	{ID: "insumo-salmao", Name: "Salmão", Unit: "porção"},
	{ID: "insumo-strogonoffcarne", Name: "Strogonoff de carne", Unit: "porção"},
	{ID: "insumo-strogonofffrango", Name: "Strogonoff de frango", Unit: "porção"},
	{ID: "insumo-tomate", Name: "Tomate", Unit: "pote"},
	{ID: "insumo-vinagrete", Name: "Vinagrete", Unit: "pote"},
}
